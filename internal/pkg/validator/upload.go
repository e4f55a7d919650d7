package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/sgultrafix/trafix-rag-agent/internal/config"
	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

// Extensions accepted per modality. Uploads replace the whole corpus, so a
// single file per request is the unit of work.
var (
	DocumentExtensions = map[string]bool{
		".pdf": true,
	}
	SchemaExtensions = map[string]bool{
		".json": true,
		".yml":  true,
		".yaml": true,
		".sql":  true,
	}
)

// Validator validates file uploads
type Validator struct {
	cfg config.FileUploadConfig
}

func NewFileValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateUpload checks extension and size limits for one uploaded file.
func (v *Validator) ValidateUpload(fh *multipart.FileHeader, modality entity.Modality) error {
	if fh == nil {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}

	allowed := DocumentExtensions
	if modality == entity.ModalitySchema {
		allowed = SchemaExtensions
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowed[ext] {
		return fmt.Errorf("%w: %q (allowed: %s)", entity.ErrInvalidExtension, ext, extensionList(allowed))
	}

	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file %q is %d bytes (max %d)", entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
	}

	return nil
}

func extensionList(allowed map[string]bool) string {
	exts := make([]string, 0, len(allowed))
	for ext := range allowed {
		exts = append(exts, ext)
	}
	// Stable output for error messages
	for i := 0; i < len(exts); i++ {
		for j := i + 1; j < len(exts); j++ {
			if exts[j] < exts[i] {
				exts[i], exts[j] = exts[j], exts[i]
			}
		}
	}
	return strings.Join(exts, ", ")
}

// SanitizeFilename sanitizes a filename for metadata storage.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
	)
	return replacer.Replace(filename)
}

// Package resume holds the resume file type and the content type policy
// shared by every path that accepts a resume.
package resume

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Allowed content types
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOC  = "application/msword"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

const octetStream = "application/octet-stream"

var extensionByType = map[string]string{
	ContentTypePDF:  ".pdf",
	ContentTypeDOC:  ".doc",
	ContentTypeDOCX: ".docx",
}

var typeByExtension = map[string]string{
	".pdf":  ContentTypePDF,
	".doc":  ContentTypeDOC,
	".docx": ContentTypeDOCX,
}

// ErrUnsupportedType is returned for anything other than pdf, doc or docx.
var ErrUnsupportedType = errors.New("resume must be a PDF, DOC or DOCX file")

// File is an uploaded resume.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ContentTypeForExtension maps a file name to its resume content type, or
// octet-stream when the extension is not a resume format.
func ContentTypeForExtension(filename string) string {
	if ct, ok := typeByExtension[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return octetStream
}

// ExtensionFor returns the canonical extension of an allowed content type.
func ExtensionFor(contentType string) string {
	return extensionByType[normalize(contentType)]
}

// ResolveContentType decides the content type of f and checks it against the
// allow-list. The declared type wins when present. An empty or octet-stream
// declaration falls back to sniffing the bytes, then to the file extension.
func ResolveContentType(f File) (string, error) {
	declared := normalize(f.ContentType)
	if declared != "" && declared != octetStream {
		if _, ok := extensionByType[declared]; ok {
			return declared, nil
		}
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedType, declared)
	}

	if len(f.Data) > 0 {
		for m := mimetype.Detect(f.Data); m != nil; m = m.Parent() {
			if _, ok := extensionByType[m.String()]; ok {
				return m.String(), nil
			}
		}
	}

	if ct := ContentTypeForExtension(f.Filename); ct != octetStream {
		return ct, nil
	}
	return "", ErrUnsupportedType
}

func normalize(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

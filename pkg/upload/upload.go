// Package upload reads the file part of a multipart import request.
package upload

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
)

var (
	ErrMissingFile = errors.New("no file found")
	ErrNotText     = errors.New("file is not a text document")
)

// File is an uploaded file held in memory.
type File struct {
	Name  string
	Size  int64
	Mime  *mimetype.MIME
	Bytes []byte
}

// Ext returns the lower-cased file name extension, including the dot.
func (f *File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// ReadText returns the file sent in field. The request must already be
// parsed with ParseMultipartForm. Binary payloads are rejected; empty files
// are passed through for the parser to report.
func ReadText(r *http.Request, field string) (*File, error) {
	if r.MultipartForm == nil {
		return nil, errors.Wrap(ErrMissingFile, field)
	}
	headers, ok := r.MultipartForm.File[field]
	if !ok || len(headers) == 0 {
		return nil, errors.Wrap(ErrMissingFile, field)
	}
	header := headers[0]
	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", field)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", field)
	}
	out := &File{Name: header.Filename, Size: header.Size, Bytes: body}
	if len(body) == 0 {
		return out, nil
	}
	out.Mime = mimetype.Detect(body)
	if !IsText(out.Mime) {
		return nil, errors.Wrapf(ErrNotText, "%s is %s", header.Filename, out.Mime.String())
	}
	return out, nil
}

// IsText reports whether m is text/plain or one of its descendants (JSON,
// CSV, TSV).
func IsText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

package models

import (
	"bytes"
	"io"
)

// ImageUpload is an uploaded image whose type was detected from its content.
type ImageUpload struct {
	Filename    string
	ContentType string
	Extension   string
	Size        int64
	Data        []byte
}

// Reader returns a fresh reader over the image bytes.
func (u *ImageUpload) Reader() io.Reader {
	return bytes.NewReader(u.Data)
}

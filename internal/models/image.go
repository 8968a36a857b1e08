// internal/models/image.go
package models

// ImageReference locates a captured photo: a local path or a file:// URI.
type ImageReference string

// EncodedImage is a photo ready to embed in a model request.
type EncodedImage struct {
	Base64   string
	MIMEType string
	Size     int64
}

// DataURL renders the image as a data: URL.
func (i *EncodedImage) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64
}

// VisionRequest is one prompt plus one image sent to a vision model.
type VisionRequest struct {
	Prompt      string
	Image       *EncodedImage
	Detail      string
	MaxTokens   int
	Temperature float64
}

// Package media validates admin image uploads and turns them into data URLs
// suitable for a document's imageUrl field.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxBytes = 1 << 20

var (
	ErrTooLarge   = errors.New("File is too big! Please use an image smaller than 1MB.")
	ErrNotAnImage = errors.New("uploaded file is not a supported image")
	ErrEmpty      = errors.New("uploaded file is empty")
)

var supportedTypes = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.GIF,
}

// Image is a processed upload
type Image struct {
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int    `json:"size"`
	DataURL  string `json:"data_url"`
}

type Processor struct {
	maxBytes  int64
	maxWidth  int
	maxHeight int
	quality   int
}

func NewProcessor(maxBytes int64) *Processor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Processor{
		maxBytes:  maxBytes,
		maxWidth:  1600,
		maxHeight: 1600,
		quality:   85,
	}
}

func (p *Processor) MaxBytes() int64 {
	return p.maxBytes
}

// CheckSize rejects uploads over the limit before anything reads their content
func (p *Processor) CheckSize(size int64) error {
	if size > p.maxBytes {
		return ErrTooLarge
	}
	return nil
}

func (p *Processor) Process(data []byte) (*Image, error) {
	if err := p.CheckSize(int64(len(data))); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	mtype := mimetype.Detect(data)
	format, ok := supportedTypes[mtype.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	img = p.fit(img)

	// GIF frames beyond the first are lost on decode; store as PNG
	outType := mtype.String()
	if format == imaging.GIF {
		format = imaging.PNG
		outType = "image/png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()

	return &Image{
		MimeType: outType,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Size:     buf.Len(),
		DataURL:  "data:" + outType + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

func (p *Processor) fit(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= p.maxWidth && bounds.Dy() <= p.maxHeight {
		return img
	}
	return imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)
}

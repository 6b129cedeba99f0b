package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"
)

// Logos are scaled down to fit this box (pixels) before embedding.
const (
	logoMaxPx = 400
)

// NewLogo decodes an image (PNG, JPEG, GIF, BMP or TIFF), applies its EXIF
// orientation, scales it to fit the logo box and re-encodes it as PNG.
func NewLogo(name string, r io.Reader) (*Asset, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > logoMaxPx || b.Dy() > logoMaxPx {
		img = imaging.Fit(img, logoMaxPx, logoMaxPx, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	nb := img.Bounds()
	return &Asset{Name: name, PNG: buf.Bytes(), Width: nb.Dx(), Height: nb.Dy()}, nil
}

// LoadLogo reads the logo at path. An empty path means no logo.
func LoadLogo(path string) (*Asset, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewLogo("logo", f)
}

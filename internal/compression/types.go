package compression

import "image"

// LadderOptions bounds the quality/scale degradation ladder.
type LadderOptions struct {
	StartQuality int     `json:"start_quality"`
	MinQuality   int     `json:"min_quality"`
	MinScale     float64 `json:"min_scale"`
}

// DefaultLadderOptions returns the ladder bounds used for standalone images.
func DefaultLadderOptions() LadderOptions {
	return LadderOptions{
		StartQuality: 80,
		MinQuality:   25,
		MinScale:     0.3,
	}
}

func (o LadderOptions) withDefaults() LadderOptions {
	d := DefaultLadderOptions()
	if o.StartQuality <= 0 {
		o.StartQuality = d.StartQuality
	}
	if o.MinQuality <= 0 {
		o.MinQuality = d.MinQuality
	}
	if o.MinScale <= 0 {
		o.MinScale = d.MinScale
	}
	return o
}

// EmbeddedImage describes one raster image stream inside a PDF.
type EmbeddedImage struct {
	PageNr int
	ObjNr  int
	Name   string
	Width  int
	Height int
	Size   int64
}

// DocumentRewriter performs structural PDF operations: lossless rewriting,
// embedded image surgery and assembling page images back into a document.
type DocumentRewriter interface {
	Optimize(inPath, outPath string) error
	PageCount(path string) (int, error)
	ListImages(path string) ([]EmbeddedImage, error)
	ExtractImage(path string, img EmbeddedImage) ([]byte, error)
	ReplaceImage(inPath, outPath string, img EmbeddedImage, jpegData []byte) error
	FromJPEGPages(jpegPaths []string, outPath string) error
}

// PageRenderer rasterizes document pages at the given resolution.
type PageRenderer interface {
	RenderPages(path string, dpi float64) ([]image.Image, error)
}

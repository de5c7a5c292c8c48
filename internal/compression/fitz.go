package compression

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes PDF pages through MuPDF.
type FitzRenderer struct{}

func NewFitzRenderer() *FitzRenderer {
	return &FitzRenderer{}
}

func (FitzRenderer) RenderPages(path string, dpi float64) ([]image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pages := make([]image.Image, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, dpi)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

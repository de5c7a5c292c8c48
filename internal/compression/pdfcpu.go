package compression

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPURewriter implements DocumentRewriter on top of the pdfcpu toolkit.
type PDFCPURewriter struct {
	conf *model.Configuration
}

// NewPDFCPURewriter creates a rewriter with relaxed validation, since scanned
// invoices are frequently produced by sloppy generators.
func NewPDFCPURewriter() *PDFCPURewriter {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFCPURewriter{conf: conf}
}

// Optimize rewrites the document applying stream compression only.
func (r *PDFCPURewriter) Optimize(inPath, outPath string) error {
	return api.OptimizeFile(inPath, outPath, r.conf)
}

func (r *PDFCPURewriter) PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}

// ListImages enumerates embedded raster images across all pages.
func (r *PDFCPURewriter) ListImages(path string) ([]EmbeddedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := api.Images(f, nil, r.conf)
	if err != nil {
		return nil, err
	}

	var out []EmbeddedImage
	for _, page := range pages {
		for objNr, img := range page {
			if img.Width <= 0 || img.Height <= 0 {
				continue
			}
			out = append(out, EmbeddedImage{
				PageNr: img.PageNr,
				ObjNr:  objNr,
				Name:   img.Name,
				Width:  img.Width,
				Height: img.Height,
				Size:   img.Size,
			})
		}
	}
	return out, nil
}

// ExtractImage returns the raw encoded bytes of one embedded image stream.
func (r *PDFCPURewriter) ExtractImage(path string, target EmbeddedImage) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := api.ExtractImagesRaw(f, []string{strconv.Itoa(target.PageNr)}, r.conf)
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		for objNr, img := range page {
			if objNr == target.ObjNr {
				return io.ReadAll(img)
			}
		}
	}
	return nil, fmt.Errorf("image object %d not found on page %d", target.ObjNr, target.PageNr)
}

// ReplaceImage writes a copy of the document with the target image stream
// swapped for jpegData.
func (r *PDFCPURewriter) ReplaceImage(inPath, outPath string, target EmbeddedImage, jpegData []byte) error {
	tmp, err := os.CreateTemp("", "billpress-img-*.jpg")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(jpegData); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return api.UpdateImagesFile(inPath, tmp.Name(), outPath, target.ObjNr, 0, "", r.conf)
}

// FromJPEGPages assembles the JPEGs into a document, one full-size image per
// page, in slice order.
func (r *PDFCPURewriter) FromJPEGPages(jpegPaths []string, outPath string) error {
	return api.ImportImagesFile(jpegPaths, outPath, nil, r.conf)
}

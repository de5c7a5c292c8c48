package compression

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
)

type fakeRewriter struct {
	optimize      func(in, out string) error
	pageCount     func(path string) (int, error)
	listImages    func(path string) ([]EmbeddedImage, error)
	extractImage  func(path string, img EmbeddedImage) ([]byte, error)
	replaceImage  func(in, out string, img EmbeddedImage, jpegData []byte) error
	fromJPEGPages func(paths []string, out string) error
}

func (f *fakeRewriter) Optimize(in, out string) error {
	if f.optimize == nil {
		return errors.New("unexpected Optimize call")
	}
	return f.optimize(in, out)
}

func (f *fakeRewriter) PageCount(path string) (int, error) {
	if f.pageCount == nil {
		return 0, errors.New("unexpected PageCount call")
	}
	return f.pageCount(path)
}

func (f *fakeRewriter) ListImages(path string) ([]EmbeddedImage, error) {
	if f.listImages == nil {
		return nil, errors.New("unexpected ListImages call")
	}
	return f.listImages(path)
}

func (f *fakeRewriter) ExtractImage(path string, img EmbeddedImage) ([]byte, error) {
	if f.extractImage == nil {
		return nil, errors.New("unexpected ExtractImage call")
	}
	return f.extractImage(path, img)
}

func (f *fakeRewriter) ReplaceImage(in, out string, img EmbeddedImage, jpegData []byte) error {
	if f.replaceImage == nil {
		return errors.New("unexpected ReplaceImage call")
	}
	return f.replaceImage(in, out, img, jpegData)
}

func (f *fakeRewriter) FromJPEGPages(paths []string, out string) error {
	if f.fromJPEGPages == nil {
		return errors.New("unexpected FromJPEGPages call")
	}
	return f.fromJPEGPages(paths, out)
}

type fakeRenderer struct {
	renderPages func(path string, dpi float64) ([]image.Image, error)
}

func (f *fakeRenderer) RenderPages(path string, dpi float64) ([]image.Image, error) {
	if f.renderPages == nil {
		return nil, errors.New("unexpected RenderPages call")
	}
	return f.renderPages(path, dpi)
}

func writeBytes(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xAB}, n), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func writeSized(n int) func(in, out string) error {
	return func(in, out string) error {
		return os.WriteFile(out, bytes.Repeat([]byte{0xCD}, n), 0644)
	}
}

func newTestPDFCompressor(rewriter DocumentRewriter, renderer PageRenderer) *PDFCompressor {
	return NewPDFCompressor(rewriter, renderer, NewImageCompressor(nil), nil)
}

const testTarget = 200 * 1024

func TestCompressPassthrough(t *testing.T) {
	tempDir := t.TempDir()
	input := filepath.Join(tempDir, "small.pdf")
	output := filepath.Join(tempDir, "out.pdf")
	writeBytes(t, input, 100*1024)

	c := newTestPDFCompressor(&fakeRewriter{}, &fakeRenderer{})

	ok, err := c.Compress(input, output, testTarget)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ok {
		t.Error("Expected success for a file already under budget")
	}

	in, _ := os.ReadFile(input)
	out, _ := os.ReadFile(output)
	if !bytes.Equal(in, out) {
		t.Error("Expected passthrough output to be byte-identical to input")
	}
}

func TestCompressLosslessRewriteWins(t *testing.T) {
	tempDir := t.TempDir()
	input := filepath.Join(tempDir, "big.pdf")
	output := filepath.Join(tempDir, "out.pdf")
	writeBytes(t, input, 400*1024)

	rewriter := &fakeRewriter{optimize: writeSized(150 * 1024)}

	c := newTestPDFCompressor(rewriter, &fakeRenderer{})

	ok, err := c.Compress(input, output, testTarget)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ok {
		t.Error("Expected success after lossless rewrite")
	}

	info, err := os.Stat(output)
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	if info.Size() != 150*1024 {
		t.Errorf("Expected the lossless result on disk, got %d bytes", info.Size())
	}
}

func TestCompressEmbeddedImageRewrite(t *testing.T) {
	tempDir := t.TempDir()
	input := filepath.Join(tempDir, "scan.pdf")
	output := filepath.Join(tempDir, "out.pdf")
	writeBytes(t, input, 600*1024)

	embedded, err := encodeJPEG(noisyImage(200, 200), 90)
	if err != nil {
		t.Fatalf("Failed to build embedded image: %v", err)
	}

	var replaced int
	rewriter := &fakeRewriter{
		optimize: func(in, out string) error {
			// The first pass (lossless) stays over budget, the pass after
			// image replacement fits.
			if filepath.Base(out) == "lossless.pdf" {
				return writeSized(500 * 1024)(in, out)
			}
			return writeSized(120 * 1024)(in, out)
		},
		listImages: func(path string) ([]EmbeddedImage, error) {
			return []EmbeddedImage{
				{PageNr: 1, ObjNr: 7, Width: 200, Height: 200, Size: 250 * 1024},
				{PageNr: 2, ObjNr: 9, Width: 200, Height: 200, Size: 250 * 1024},
			}, nil
		},
		extractImage: func(path string, img EmbeddedImage) ([]byte, error) {
			return embedded, nil
		},
		replaceImage: func(in, out string, img EmbeddedImage, jpegData []byte) error {
			if len(jpegData) == 0 {
				t.Error("Expected recompressed image data")
			}
			replaced++
			return writeSized(300 * 1024)(in, out)
		},
	}

	c := newTestPDFCompressor(rewriter, &fakeRenderer{})

	ok, err := c.Compress(input, output, testTarget)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ok {
		t.Error("Expected success after embedded image rewrite")
	}
	if replaced != 2 {
		t.Errorf("Expected 2 image replacements, got %d", replaced)
	}
}

func TestCompressRasterFallback(t *testing.T) {
	tempDir := t.TempDir()
	input := filepath.Join(tempDir, "vector.pdf")
	output := filepath.Join(tempDir, "out.pdf")
	writeBytes(t, input, 900*1024)

	var renderedDPI []float64
	rewriter := &fakeRewriter{
		optimize:   writeSized(500 * 1024),
		listImages: func(path string) ([]EmbeddedImage, error) { return nil, nil },
		pageCount:  func(path string) (int, error) { return 2, nil },
		fromJPEGPages: func(paths []string, out string) error {
			if len(paths) != 2 {
				t.Errorf("Expected 2 page images, got %d", len(paths))
			}
			return writeSized(90 * 1024)("", out)
		},
	}
	renderer := &fakeRenderer{
		renderPages: func(path string, dpi float64) ([]image.Image, error) {
			renderedDPI = append(renderedDPI, dpi)
			return []image.Image{noisyImage(300, 400), noisyImage(300, 400)}, nil
		},
	}

	c := newTestPDFCompressor(rewriter, renderer)

	ok, err := c.Compress(input, output, testTarget)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ok {
		t.Error("Expected success after rasterization")
	}
	if len(renderedDPI) != 1 {
		t.Fatalf("Expected a single render pass, got %d", len(renderedDPI))
	}
	if renderedDPI[0] != 150 {
		t.Errorf("Expected 150 dpi for a small original, got %f", renderedDPI[0])
	}
}

func TestCompressRetryAtLowerResolution(t *testing.T) {
	tempDir := t.TempDir()
	input := filepath.Join(tempDir, "large.pdf")
	output := filepath.Join(tempDir, "out.pdf")
	writeBytes(t, input, 3<<20)

	var renderedDPI []float64
	rewriter := &fakeRewriter{
		optimize:   writeSized(2 << 20),
		listImages: func(path string) ([]EmbeddedImage, error) { return nil, nil },
		pageCount:  func(path string) (int, error) { return 1, nil },
		fromJPEGPages: func(paths []string, out string) error {
			if filepath.Base(out) == "pages.pdf" {
				return writeSized(250 * 1024)("", out)
			}
			return writeSized(150 * 1024)("", out)
		},
	}
	renderer := &fakeRenderer{
		renderPages: func(path string, dpi float64) ([]image.Image, error) {
			renderedDPI = append(renderedDPI, dpi)
			return []image.Image{noisyImage(300, 400)}, nil
		},
	}

	c := newTestPDFCompressor(rewriter, renderer)

	ok, err := c.Compress(input, output, testTarget)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ok {
		t.Error("Expected success after the low-resolution retry")
	}
	if len(renderedDPI) != 2 {
		t.Fatalf("Expected two render passes, got %d", len(renderedDPI))
	}
	if renderedDPI[1] >= renderedDPI[0] {
		t.Errorf("Expected retry at lower dpi, got %f then %f", renderedDPI[0], renderedDPI[1])
	}

	info, _ := os.Stat(output)
	if info.Size() != 150*1024 {
		t.Errorf("Expected the retry result on disk, got %d bytes", info.Size())
	}
}

func TestCompressRegressionGuardPrefersLossless(t *testing.T) {
	tempDir := t.TempDir()
	input := filepath.Join(tempDir, "stubborn.pdf")
	output := filepath.Join(tempDir, "out.pdf")
	writeBytes(t, input, 1<<20)

	rewriter := &fakeRewriter{
		optimize:   writeSized(300 * 1024),
		listImages: func(path string) ([]EmbeddedImage, error) { return nil, nil },
		pageCount:  func(path string) (int, error) { return 1, nil },
		// Rasterization makes things worse: over budget and over half the
		// original size.
		fromJPEGPages: func(paths []string, out string) error {
			return writeSized(700 * 1024)("", out)
		},
	}
	renderer := &fakeRenderer{
		renderPages: func(path string, dpi float64) ([]image.Image, error) {
			return []image.Image{noisyImage(300, 400)}, nil
		},
	}

	c := newTestPDFCompressor(rewriter, renderer)

	ok, err := c.Compress(input, output, testTarget)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ok {
		t.Error("Expected failure: no strategy reached the budget")
	}

	info, _ := os.Stat(output)
	if info.Size() != 300*1024 {
		t.Errorf("Expected the lossless result on disk, got %d bytes", info.Size())
	}
}

func TestCompressSafetyFallbackCopiesOriginal(t *testing.T) {
	tempDir := t.TempDir()
	input := filepath.Join(tempDir, "broken.pdf")
	output := filepath.Join(tempDir, "out.pdf")
	writeBytes(t, input, 400*1024)

	rewriter := &fakeRewriter{
		optimize: func(in, out string) error { return errors.New("malformed xref table") },
	}

	c := newTestPDFCompressor(rewriter, &fakeRenderer{})

	ok, err := c.Compress(input, output, testTarget)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ok {
		t.Error("Expected failure for an oversized unprocessable file")
	}

	in, _ := os.ReadFile(input)
	out, _ := os.ReadFile(output)
	if !bytes.Equal(in, out) {
		t.Error("Expected an unmodified copy of the source")
	}
}

func TestPerUnitBudget(t *testing.T) {
	tests := []struct {
		name     string
		budget   int64
		count    int
		floor    int64
		expected int64
	}{
		{name: "even split", budget: 180 * 1024, count: 3, floor: 10 * 1024, expected: 60 * 1024},
		{name: "floored", budget: 30 * 1024, count: 10, floor: 10 * 1024, expected: 10 * 1024},
		{name: "single unit", budget: 180 * 1024, count: 1, floor: 15 * 1024, expected: 180 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := perUnitBudget(tt.budget, tt.count, tt.floor); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestRenderDPIFor(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected float64
	}{
		{name: "small", size: 1 << 20, expected: 150},
		{name: "medium", size: 4 << 20, expected: 110},
		{name: "large", size: 20 << 20, expected: 72},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderDPIFor(tt.size); got != tt.expected {
				t.Errorf("Expected %f dpi, got %f", tt.expected, got)
			}
		})
	}
}

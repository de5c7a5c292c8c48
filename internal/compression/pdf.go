package compression

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"billpress/internal/common"
)

const (
	// pdfOverheadBytes is reserved for document structure when dividing the
	// budget among images or pages.
	pdfOverheadBytes = 20 * 1024

	// Per-unit budget floors keep many-page documents from degenerating into
	// near-zero sub-budgets.
	minImageBudget  = 10 * 1024
	minPageBudget   = 15 * 1024
	retryPageBudget = 8 * 1024

	embeddedMinQuality = 20

	retryDPIFactor = 0.6
	minRenderDPI   = 50
)

// PDFCompressor drives a PDF down to a byte budget, trying progressively more
// destructive strategies: lossless rewrite, embedded image recompression,
// then full-page rasterization.
type PDFCompressor struct {
	rewriter DocumentRewriter
	renderer PageRenderer
	images   *ImageCompressor
	logger   *slog.Logger
}

// NewPDFCompressor creates a new PDF compressor instance.
func NewPDFCompressor(rewriter DocumentRewriter, renderer PageRenderer, images *ImageCompressor, logger *slog.Logger) *PDFCompressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCompressor{
		rewriter: rewriter,
		renderer: renderer,
		images:   images,
		logger:   logger,
	}
}

// Compress writes a version of the PDF at inputPath to outputPath that fits
// targetBytes if any strategy achieves it. The bool reports whether the final
// on-disk size fits; errors are reserved for failures producing outputPath at
// all. A failed rewrite falls back to an unmodified copy of the source.
func (c *PDFCompressor) Compress(inputPath, outputPath string, targetBytes int64) (bool, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return false, err
	}
	originalSize := info.Size()

	// Already under budget: copy unchanged.
	if originalSize <= targetBytes {
		if err := common.CopyFile(inputPath, outputPath); err != nil {
			return false, err
		}
		return true, nil
	}

	ok, err := c.rewrite(inputPath, outputPath, targetBytes, originalSize)
	if err != nil {
		c.logger.Warn("pdf rewrite failed, copying original", "file", inputPath, "error", err)
		if copyErr := common.CopyFile(inputPath, outputPath); copyErr != nil {
			return false, copyErr
		}
		return false, nil
	}
	return ok, nil
}

func (c *PDFCompressor) rewrite(inputPath, outputPath string, targetBytes, originalSize int64) (bool, error) {
	workDir, err := os.MkdirTemp("", "billpress-pdf-")
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(workDir)

	// Lossless stream rewrite first.
	lossless := filepath.Join(workDir, "lossless.pdf")
	if err := c.rewriter.Optimize(inputPath, lossless); err != nil {
		return false, fmt.Errorf("lossless rewrite: %w", err)
	}

	final := lossless
	size, err := fileSize(final)
	if err != nil {
		return false, err
	}

	// Recompress embedded image streams against a shared budget.
	if size > targetBytes {
		rewritten, err := c.recompressEmbeddedImages(inputPath, workDir, targetBytes)
		if err != nil {
			c.logger.Debug("embedded image rewrite skipped", "file", inputPath, "error", err)
		} else if rewritten != "" {
			if s, err := fileSize(rewritten); err == nil {
				final, size = rewritten, s
			}
		}
	}

	// Still over budget: rasterize each page and rebuild the document from
	// per-page JPEGs.
	if size > targetBytes {
		dpi := renderDPIFor(originalSize)
		if raster, err := c.rasterizePages(inputPath, workDir, targetBytes, dpi, minPageBudget, "pages"); err != nil {
			c.logger.Debug("page rasterization failed", "file", inputPath, "error", err)
		} else if s, err := fileSize(raster); err == nil {
			final, size = raster, s
		}
	}

	// One bounded retry at a lower resolution and a lower per-page floor.
	if size > targetBytes {
		dpi := renderDPIFor(originalSize) * retryDPIFactor
		if dpi < minRenderDPI {
			dpi = minRenderDPI
		}
		if raster, err := c.rasterizePages(inputPath, workDir, targetBytes, dpi, retryPageBudget, "retry"); err != nil {
			c.logger.Debug("low resolution retry failed", "file", inputPath, "error", err)
		} else if s, err := fileSize(raster); err == nil {
			final, size = raster, s
		}
	}

	// Never let the aggressive rewrite end up worse than the lossless pass:
	// when the result misses the budget and is still larger than half the
	// original, the lossless output is the better artifact.
	if size > targetBytes && size > originalSize/2 {
		final = lossless
	}

	if err := common.CopyFile(final, outputPath); err != nil {
		return false, err
	}
	finalSize, err := fileSize(outputPath)
	if err != nil {
		return false, err
	}
	return finalSize <= targetBytes, nil
}

// recompressEmbeddedImages rebuilds the document with each embedded raster
// image re-encoded against an equal share of the image budget. Returns ""
// when there is nothing to gain (no images, or they already fit).
func (c *PDFCompressor) recompressEmbeddedImages(inputPath, workDir string, targetBytes int64) (string, error) {
	imgs, err := c.rewriter.ListImages(inputPath)
	if err != nil {
		return "", err
	}
	if len(imgs) == 0 {
		return "", nil
	}

	var combined int64
	for _, im := range imgs {
		combined += im.Size
	}
	imageBudget := targetBytes - pdfOverheadBytes
	if combined <= imageBudget {
		return "", nil
	}

	perImage := perUnitBudget(imageBudget, len(imgs), minImageBudget)

	opts := DefaultLadderOptions()
	opts.MinQuality = embeddedMinQuality

	current := inputPath
	for i, im := range imgs {
		raw, err := c.rewriter.ExtractImage(inputPath, im)
		if err != nil {
			// Unreadable stream stays untouched.
			c.logger.Debug("embedded image extract failed", "page", im.PageNr, "object", im.ObjNr, "error", err)
			continue
		}

		jpegData := c.images.CompressData(raw, int(perImage), opts)

		next := filepath.Join(workDir, fmt.Sprintf("img-%d.pdf", i))
		if err := c.rewriter.ReplaceImage(current, next, im, jpegData); err != nil {
			c.logger.Debug("embedded image replace failed", "page", im.PageNr, "object", im.ObjNr, "error", err)
			continue
		}
		current = next
	}
	if current == inputPath {
		return "", nil
	}

	out := filepath.Join(workDir, "images.pdf")
	if err := c.rewriter.Optimize(current, out); err != nil {
		return "", fmt.Errorf("rewrite after image replacement: %w", err)
	}
	return out, nil
}

// rasterizePages renders every page at dpi, compresses each rendering against
// an equal share of the budget and assembles the JPEGs back into a document,
// one image per page in original order.
func (c *PDFCompressor) rasterizePages(inputPath, workDir string, targetBytes int64, dpi float64, floor int64, tag string) (string, error) {
	pages, err := c.renderer.RenderPages(inputPath, dpi)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", errors.New("document has no pages")
	}

	perPage := perUnitBudget(targetBytes-pdfOverheadBytes, len(pages), floor)

	opts := DefaultLadderOptions()
	opts.MinQuality = embeddedMinQuality

	jpegPaths := make([]string, 0, len(pages))
	for i, page := range pages {
		data := c.images.Compress(page, int(perPage), opts)
		path := filepath.Join(workDir, fmt.Sprintf("%s-%03d.jpg", tag, i))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", err
		}
		jpegPaths = append(jpegPaths, path)
	}

	out := filepath.Join(workDir, tag+".pdf")
	if err := c.rewriter.FromJPEGPages(jpegPaths, out); err != nil {
		return "", fmt.Errorf("assemble page images: %w", err)
	}

	if n, err := c.rewriter.PageCount(out); err == nil && n != len(pages) {
		return "", fmt.Errorf("rebuilt document has %d pages, want %d", n, len(pages))
	}
	return out, nil
}

// perUnitBudget divides budget evenly across count units, floored.
func perUnitBudget(budget int64, count int, floor int64) int64 {
	per := budget / int64(count)
	if per < floor {
		return floor
	}
	return per
}

// renderDPIFor tiers the rendering resolution by source size: small documents
// can afford more pixels, large ones are bounded to keep raw pixel volume in
// check.
func renderDPIFor(originalSize int64) float64 {
	switch {
	case originalSize < 2<<20:
		return 150
	case originalSize < 8<<20:
		return 110
	default:
		return 72
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

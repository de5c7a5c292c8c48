package compression

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"

	"github.com/disintegration/imaging"
)

const (
	qualityCoarseStep  = 10
	qualityFineStep    = 5
	coarseQualityFloor = 40
	scaleStep          = 0.1
)

// ImageCompressor re-encodes raster images as JPEG under a byte budget.
type ImageCompressor struct {
	logger *slog.Logger
}

// NewImageCompressor creates a new image compressor instance.
func NewImageCompressor(logger *slog.Logger) *ImageCompressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageCompressor{logger: logger}
}

// CompressData decodes data and drives it down the degradation ladder.
// Malformed input is returned unchanged; the caller's size check against the
// budget decides success either way.
func (c *ImageCompressor) CompressData(data []byte, targetBytes int, opts LadderOptions) []byte {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		c.logger.Warn("image decode failed, keeping original bytes", "error", err)
		return data
	}
	return c.Compress(img, targetBytes, opts)
}

// Compress walks the quality/scale ladder until the encoded size fits
// targetBytes or the ladder bottoms out. Best effort: when no rung fits, the
// last (lowest fidelity) attempt is returned and the caller must compare its
// length against the budget.
func (c *ImageCompressor) Compress(img image.Image, targetBytes int, opts LadderOptions) []byte {
	opts = opts.withDefaults()
	flat := flattenAlpha(img)

	quality := opts.StartQuality
	scale := 1.0
	var last []byte

	for quality >= opts.MinQuality && scale >= opts.MinScale {
		frame := flat
		if scale < 1.0 {
			w := scaledDim(flat.Bounds().Dx(), scale)
			h := scaledDim(flat.Bounds().Dy(), scale)
			frame = imaging.Resize(flat, w, h, imaging.Lanczos)
		}

		encoded, err := encodeJPEG(frame, quality)
		if err != nil {
			c.logger.Error("jpeg encode failed", "quality", quality, "scale", scale, "error", err)
			break
		}
		last = encoded

		if len(encoded) <= targetBytes {
			return encoded
		}

		quality, scale = nextRung(quality, scale)
	}

	if last == nil {
		// Degenerate ladder bounds; encode once at the floor so the caller
		// always gets a usable JPEG.
		encoded, err := encodeJPEG(flat, opts.MinQuality)
		if err == nil {
			last = encoded
		}
	}
	return last
}

// CompressFile reads an image file, compresses it to targetBytes and writes
// the JPEG result to outputPath. The bool reports whether the written file
// fits the budget.
func (c *ImageCompressor) CompressFile(inputPath, outputPath string, targetBytes int64, opts LadderOptions) (bool, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return false, err
	}

	out := c.CompressData(data, int(targetBytes), opts)

	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return false, err
	}
	return int64(len(out)) <= targetBytes, nil
}

// nextRung steps the ladder down: big quality steps while quality is high,
// smaller quality steps plus a scale decrement once below the threshold.
func nextRung(quality int, scale float64) (int, float64) {
	if quality > coarseQualityFloor {
		return quality - qualityCoarseStep, scale
	}
	return quality - qualityFineStep, scale - scaleStep
}

// flattenAlpha composites img onto an opaque white background. JPEG carries
// no alpha channel, so transparency must be resolved before encoding.
func flattenAlpha(img image.Image) image.Image {
	switch im := img.(type) {
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return img
	case *image.NRGBA:
		if im.Opaque() {
			return img
		}
	case *image.RGBA:
		if im.Opaque() {
			return img
		}
	}

	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func scaledDim(dim int, scale float64) int {
	scaled := int(math.Round(float64(dim) * scale))
	if scaled < 1 {
		return 1
	}
	return scaled
}

// ImageFileCompressor adapts ImageCompressor to the per-file contract the
// batch orchestrator dispatches on, with fixed ladder options.
type ImageFileCompressor struct {
	Compressor *ImageCompressor
	Options    LadderOptions
}

func (a ImageFileCompressor) Compress(inputPath, outputPath string, targetBytes int64) (bool, error) {
	return a.Compressor.CompressFile(inputPath, outputPath, targetBytes, a.Options)
}

// Crop engine: writes Region crops out of a source frame
package imgio

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"screen-region-engine/internal/roi"
)

// CropResult describes one exported crop.
type CropResult struct {
	RegionID   string `json:"roi_id"`
	RegionName string `json:"roi_name"`
	Filename   string `json:"filename"`
	Path       string `json:"filepath"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	CenterX    int    `json:"center_x"`
	CenterY    int    `json:"center_y"`
}

// CropEngine crops Region bboxes out of a source Mat and writes them to the
// output directory using the {prefix}{name}_{timestamp}.{ext} template.
type CropEngine struct {
	OutputDir string
	Prefix    string
	Format    string // png, jpg or webp
	Quality   int    // jpeg/webp quality, 1-100

	logger *slog.Logger
}

func NewCropEngine(outputDir, prefix, format string, quality int, logger *slog.Logger) *CropEngine {
	if format == "" {
		format = "png"
	}
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return &CropEngine{
		OutputDir: outputDir,
		Prefix:    prefix,
		Format:    format,
		Quality:   quality,
		logger:    logger,
	}
}

// Filename generates the output file name for a region.
func (ce *CropEngine) Filename(r *roi.Region) string {
	return fmt.Sprintf("%s%s_%d.%s", ce.Prefix, r.Name, time.Now().Unix(), ce.Format)
}

// Crop writes the bbox crop of one region and records the output path on the
// region. The source Mat is not mutated.
func (ce *CropEngine) Crop(src gocv.Mat, r *roi.Region) (*CropResult, error) {
	if err := ValidateImage(src); err != nil {
		return nil, err
	}
	rect := r.Rect().Intersect(image.Rect(0, 0, src.Cols(), src.Rows()))
	if rect.Empty() {
		return nil, fmt.Errorf("region %s outside image bounds", r.Name)
	}

	cropped := src.Region(rect)
	defer cropped.Close()
	// Region() views share memory with src; clone before converting.
	owned := cropped.Clone()
	defer owned.Close()

	img, err := owned.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert crop: %w", err)
	}
	return ce.write(img, r, rect)
}

// CropTransparent writes an alpha-matted BGRA crop produced by the
// interactive cut segmenter. Only png and webp carry alpha.
func (ce *CropEngine) CropTransparent(bgra gocv.Mat, r *roi.Region) (*CropResult, error) {
	if err := ValidateImage(bgra); err != nil {
		return nil, err
	}
	if bgra.Channels() != 4 {
		return nil, fmt.Errorf("transparent crop requires 4 channels, got %d", bgra.Channels())
	}
	if ce.Format != "png" && ce.Format != "webp" {
		return nil, fmt.Errorf("format %s does not support alpha", ce.Format)
	}
	img, err := bgra.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert crop: %w", err)
	}
	return ce.write(img, r, r.Rect())
}

// CropAll crops every region in the collection, skipping failures.
func (ce *CropEngine) CropAll(src gocv.Mat, regions []roi.Region) []CropResult {
	results := make([]CropResult, 0, len(regions))
	for i := range regions {
		res, err := ce.Crop(src, &regions[i])
		if err != nil {
			ce.logger.Warn("Crop failed", "region", regions[i].Name, "error", err)
			continue
		}
		results = append(results, *res)
	}
	return results
}

func (ce *CropEngine) write(img image.Image, r *roi.Region, rect image.Rectangle) (*CropResult, error) {
	if err := os.MkdirAll(ce.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	filename := ce.Filename(r)
	path := filepath.Join(ce.OutputDir, filename)

	var err error
	if strings.EqualFold(ce.Format, "webp") {
		err = ce.writeWebP(img, path)
	} else {
		err = imaging.Save(img, path, imaging.JPEGQuality(ce.Quality))
	}
	if err != nil {
		return nil, fmt.Errorf("save crop %s: %w", path, err)
	}

	r.ImagePath = path
	ce.logger.Info("Crop written", "region", r.Name, "path", path,
		"width", rect.Dx(), "height", rect.Dy())

	center := r.Center()
	return &CropResult{
		RegionID:   r.ID,
		RegionName: r.Name,
		Filename:   filename,
		Path:       path,
		X:          rect.Min.X,
		Y:          rect.Min.Y,
		Width:      rect.Dx(),
		Height:     rect.Dy(),
		CenterX:    center.X,
		CenterY:    center.Y,
	}, nil
}

func (ce *CropEngine) writeWebP(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return webp.Encode(f, img, &webp.Options{Quality: float32(ce.Quality)})
}

// Image loading and saving
package imgio

import (
	"fmt"
	"log/slog"
	"strings"

	"gocv.io/x/gocv"
)

// Loader handles image file operations.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

func (l *Loader) LoadImage(filepath string) (gocv.Mat, error) {
	l.logger.Debug("Loading image", "filepath", filepath)

	if !isSupportedImageFormat(filepath) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", filepath)
	}

	mat := gocv.IMRead(filepath, gocv.IMReadColor)
	if mat.Empty() {
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", filepath)
	}

	l.logger.Info("Image loaded",
		"filepath", filepath,
		"width", mat.Cols(),
		"height", mat.Rows(),
		"channels", mat.Channels())

	return mat, nil
}

func (l *Loader) SaveImage(mat gocv.Mat, filepath string) error {
	l.logger.Debug("Saving image", "filepath", filepath)

	if mat.Empty() {
		return ErrEmptyImage
	}
	if !isSupportedImageFormat(filepath) {
		return fmt.Errorf("unsupported image format: %s", filepath)
	}

	if ok := gocv.IMWrite(filepath, mat); !ok {
		return fmt.Errorf("failed to save image: %s", filepath)
	}

	l.logger.Info("Image saved",
		"filepath", filepath,
		"width", mat.Cols(),
		"height", mat.Rows())

	return nil
}

func isSupportedImageFormat(filepath string) bool {
	ext := strings.ToLower(fileExtension(filepath))
	for _, format := range []string{".jpg", ".jpeg", ".png", ".webp", ".bmp"} {
		if ext == format {
			return true
		}
	}
	return false
}

func fileExtension(filepath string) string {
	for i := len(filepath) - 1; i >= 0; i-- {
		if filepath[i] == '.' {
			return filepath[i:]
		}
		if filepath[i] == '/' || filepath[i] == '\\' {
			break
		}
	}
	return ""
}

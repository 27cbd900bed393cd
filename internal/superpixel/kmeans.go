package superpixel

import (
	"fmt"

	"gocv.io/x/gocv"
)

// kmeansBackend is the fallback backend: k-means over combined Lab color and
// scaled spatial features. Clusters are not guaranteed spatially connected,
// but the labels still form a full partition of the image.
type kmeansBackend struct{}

func (kmeansBackend) Name() string     { return "kmeans" }
func (kmeansBackend) Available() error { return nil }

func (kmeansBackend) Segment(img gocv.Mat, regionSize int, ruler float64) ([]int32, int, error) {
	w, h := img.Cols(), img.Rows()
	if regionSize < 2 {
		return nil, 0, fmt.Errorf("region size %d too small", regionSize)
	}
	if ruler <= 0 {
		ruler = 10.0
	}

	k := (w * h) / (regionSize * regionSize)
	if k < 10 {
		k = 10
	}
	if k > w*h {
		return nil, 0, fmt.Errorf("image %dx%d too small for %d clusters", w, h, k)
	}

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(img, &lab, gocv.ColorBGRToLab)
	pix := lab.ToBytes()

	// One 5-dim feature row per pixel: L, a, b, weighted x, weighted y.
	spatialScale := float32(ruler) / float32(regionSize)
	features := make([]float32, 0, w*h*5)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * 3
			features = append(features,
				float32(pix[off]),
				float32(pix[off+1]),
				float32(pix[off+2]),
				float32(x)*spatialScale,
				float32(y)*spatialScale,
			)
		}
	}

	samples, err := gocv.NewMatFromBytes(w*h, 5, gocv.MatTypeCV32F, float32sToMatBytes(features))
	if err != nil {
		return nil, 0, fmt.Errorf("build feature matrix: %w", err)
	}
	defer samples.Close()

	bestLabels := gocv.NewMat()
	defer bestLabels.Close()
	centers := gocv.NewMat()
	defer centers.Close()
	criteria := gocv.NewTermCriteria(gocv.MaxIter+gocv.EPS, 20, 1.0)

	gocv.KMeans(samples, k, &bestLabels, criteria, 1, gocv.KMeansPPCenters, &centers)
	if bestLabels.Empty() || bestLabels.Rows() != w*h {
		return nil, 0, fmt.Errorf("k-means produced %d labels for %d pixels", bestLabels.Rows(), w*h)
	}

	labels := int32sFromMat(bestLabels)
	count := compactLabels(labels)
	return labels, count, nil
}

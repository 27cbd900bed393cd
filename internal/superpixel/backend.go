// Superpixel clustering backends
package superpixel

import (
	"encoding/binary"
	"errors"
	"math"

	"gocv.io/x/gocv"
)

// ErrBackendUnavailable is returned when no clustering backend can serve a
// segmentation request.
var ErrBackendUnavailable = errors.New("no superpixel backend available")

// Backend partitions an image into labeled superpixel cells. Labels returned
// are contiguous, start at 0 and cover every pixel exactly once (row-major,
// len == width*height).
type Backend interface {
	Name() string
	// Available probes whether the backend can run at all; checked once at
	// engine construction.
	Available() error
	Segment(img gocv.Mat, regionSize int, ruler float64) (labels []int32, count int, err error)
}

// labelsToMat packs a row-major label slice into a CV32S Mat.
func labelsToMat(labels []int32, w, h int) (gocv.Mat, error) {
	buf := make([]byte, len(labels)*4)
	for i, v := range labels {
		binary.NativeEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV32S, buf)
}

// int32sFromMat unpacks a single-channel CV32S Mat into a row-major slice.
func int32sFromMat(m gocv.Mat) []int32 {
	data := m.ToBytes()
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.NativeEndian.Uint32(data[i*4:]))
	}
	return out
}

// float32sToMatBytes packs float32 feature rows for gocv consumption.
func float32sToMatBytes(vals []float32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.NativeEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// compactLabels renumbers labels to a dense 0..n-1 range, dropping empty
// clusters, and returns the new label count.
func compactLabels(labels []int32) int {
	remap := make(map[int32]int32)
	var next int32
	for i, v := range labels {
		nv, ok := remap[v]
		if !ok {
			nv = next
			remap[v] = nv
			next++
		}
		labels[i] = nv
	}
	return int(next)
}

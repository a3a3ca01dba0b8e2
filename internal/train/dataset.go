package train

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/resnet/internal/tensor"
)

// Dataset is an indexable set of labeled images.
type Dataset interface {
	// Len returns the number of samples.
	Len() int

	// Batch returns samples [start, start+size) as a [size, ...shape]
	// tensor and their class labels.
	Batch(start, size int) (*tensor.Tensor, []int)
}

// SyntheticDataset holds seeded random images whose per-channel mean depends
// on the class, so a classifier can separate them after a few steps.
type SyntheticDataset struct {
	shape   tensor.Shape
	images  *tensor.Tensor // [n, ...shape]
	labels  []int
	classes int
}

// NewSyntheticDataset generates n samples of the given (height, width,
// channels) shape spread round-robin over numClasses classes.
func NewSyntheticDataset(n int, shape tensor.Shape, numClasses int, seed int64) (*SyntheticDataset, error) {
	if n < 1 {
		return nil, fmt.Errorf("train: dataset size must be positive, got %d", n)
	}
	if len(shape) != 3 {
		return nil, fmt.Errorf("train: image shape must be (height, width, channels), got %v", shape)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("train: image shape: %w", err)
	}
	if numClasses < 1 {
		return nil, fmt.Errorf("train: number of classes must be positive, got %d", numClasses)
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data
	channels := shape[2]
	means := make([][]float32, numClasses)
	for k := range means {
		means[k] = make([]float32, channels)
		for c := range means[k] {
			means[k][c] = rng.Float32()*2 - 1
		}
	}

	images := tensor.Randn(shape.WithBatch(n), rng)
	images.ScaleInPlace(0.5)
	labels := make([]int, n)
	data := images.Data()
	sampleSize := shape.NumElements()
	for i := 0; i < n; i++ {
		k := i % numClasses
		labels[i] = k
		sample := data[i*sampleSize : (i+1)*sampleSize]
		for j := range sample {
			sample[j] += means[k][j%channels]
		}
	}

	return &SyntheticDataset{shape: shape.Clone(), images: images, labels: labels, classes: numClasses}, nil
}

// Len returns the number of samples.
func (d *SyntheticDataset) Len() int {
	return len(d.labels)
}

// Shape returns the per-sample image shape.
func (d *SyntheticDataset) Shape() tensor.Shape {
	return d.shape
}

// NumClasses returns the number of label values.
func (d *SyntheticDataset) NumClasses() int {
	return d.classes
}

// Batch returns a copy of samples [start, start+size).
func (d *SyntheticDataset) Batch(start, size int) (*tensor.Tensor, []int) {
	end := start + size
	labels := make([]int, size)
	copy(labels, d.labels[start:end])
	return d.images.Slice(start, end), labels
}

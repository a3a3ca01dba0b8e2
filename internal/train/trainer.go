// Package train runs the optimization loop for a classifier over a Dataset.
package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/born-ml/resnet/internal/graph"
	"github.com/born-ml/resnet/internal/optim"
	"github.com/born-ml/resnet/internal/tensor"
)

// ErrDatasetTooSmall is returned when the dataset cannot fill one batch.
var ErrDatasetTooSmall = errors.New("train: dataset smaller than one batch")

// Classifier is the part of graph.Model the trainer drives.
type Classifier interface {
	Train(x *tensor.Tensor, labels []int, opt optim.Optimizer) (graph.StepResult, error)
	Evaluate(x *tensor.Tensor, labels []int) (graph.StepResult, error)
}

// Trainer runs a fixed number of optimization steps, cycling over the
// dataset's full batches in order.
type Trainer struct {
	Model     Classifier
	Optimizer optim.Optimizer
	BatchSize int
	Steps     int

	// LogEvery logs progress every N steps and on the last one. Zero disables it.
	LogEvery int

	// Logger receives progress lines. Nil discards them.
	Logger *log.Logger
}

// History records every training step in order.
type History struct {
	Steps []graph.StepResult
}

// Len returns the number of recorded steps.
func (h History) Len() int {
	return len(h.Steps)
}

// Last returns the most recent step, or the zero value.
func (h History) Last() graph.StepResult {
	if len(h.Steps) == 0 {
		return graph.StepResult{}
	}
	return h.Steps[len(h.Steps)-1]
}

// MeanLoss averages the loss over steps [from, to).
func (h History) MeanLoss(from, to int) float32 {
	from = max(from, 0)
	to = min(to, len(h.Steps))
	if from >= to {
		return 0
	}
	var sum float32
	for _, s := range h.Steps[from:to] {
		sum += s.Loss
	}
	return sum / float32(to-from)
}

func (t *Trainer) logger() *log.Logger {
	if t.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return t.Logger
}

func (t *Trainer) validate(ds Dataset) error {
	if t.Model == nil || t.Optimizer == nil {
		return fmt.Errorf("train: trainer needs a model and an optimizer")
	}
	if t.BatchSize < 1 {
		return fmt.Errorf("train: invalid batch size %d", t.BatchSize)
	}
	if ds.Len() < t.BatchSize {
		return fmt.Errorf("%w: %d samples, batch size %d", ErrDatasetTooSmall, ds.Len(), t.BatchSize)
	}
	return nil
}

// Run performs t.Steps training steps. It stops early with ctx.Err() when
// the context is cancelled; the returned History holds the steps completed
// so far.
func (t *Trainer) Run(ctx context.Context, ds Dataset) (History, error) {
	var h History
	if err := t.validate(ds); err != nil {
		return h, err
	}
	logger := t.logger()
	batches := ds.Len() / t.BatchSize

	for step := 0; step < t.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return h, err
		}

		x, labels := ds.Batch((step%batches)*t.BatchSize, t.BatchSize)
		res, err := t.Model.Train(x, labels, t.Optimizer)
		if err != nil {
			return h, fmt.Errorf("train: step %d: %w", step+1, err)
		}
		h.Steps = append(h.Steps, res)

		if t.LogEvery > 0 && ((step+1)%t.LogEvery == 0 || step+1 == t.Steps) {
			logger.Printf("step %d/%d: loss=%.4f reg=%.4f acc=%.2f%% lr=%g",
				step+1, t.Steps, res.Loss, res.RegularizationLoss, res.Accuracy*100, t.Optimizer.GetLR())
		}
	}
	return h, nil
}

// Evaluate averages loss and accuracy over every full batch in inference mode.
func (t *Trainer) Evaluate(ctx context.Context, ds Dataset) (graph.StepResult, error) {
	if err := t.validate(ds); err != nil {
		return graph.StepResult{}, err
	}

	var total graph.StepResult
	batches := ds.Len() / t.BatchSize
	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return graph.StepResult{}, err
		}
		x, labels := ds.Batch(b*t.BatchSize, t.BatchSize)
		res, err := t.Model.Evaluate(x, labels)
		if err != nil {
			return graph.StepResult{}, fmt.Errorf("train: evaluate batch %d: %w", b, err)
		}
		total.Loss += res.Loss
		total.RegularizationLoss = res.RegularizationLoss
		total.Accuracy += res.Accuracy
	}
	n := float32(batches)
	total.Loss /= n
	total.Accuracy /= n
	return total, nil
}

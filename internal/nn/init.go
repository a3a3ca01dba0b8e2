package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/resnet/internal/tensor"
)

// Initializer produces starting values for a weight tensor.
type Initializer interface {
	// Name returns the identifier used in configs, e.g. "he_normal".
	Name() string

	// Init returns a tensor of the given shape.
	Init(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor
}

// truncatedStddevCorrection is the standard deviation of a unit normal
// truncated at ±2σ. Dividing by it restores the requested variance.
const truncatedStddevCorrection = 0.87962566103423978

// HeNormal draws from a normal distribution truncated at two standard
// deviations with variance 2/fan_in.
//
// Reference: "Delving Deep into Rectifiers" (He et al., 2015).
type HeNormal struct{}

// Name returns "he_normal".
func (HeNormal) Name() string { return "he_normal" }

// Init fills a tensor with truncated normal values.
func (HeNormal) Init(shape tensor.Shape, fanIn, _ int, rng *rand.Rand) *tensor.Tensor {
	stddev := math.Sqrt(2.0/float64(max(fanIn, 1))) / truncatedStddevCorrection
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		z := rng.NormFloat64()
		for z < -2 || z > 2 {
			z = rng.NormFloat64()
		}
		data[i] = float32(z * stddev)
	}
	return t
}

// GlorotUniform (Xavier) draws from U(-limit, limit) with
// limit = sqrt(6 / (fan_in + fan_out)).
type GlorotUniform struct{}

// Name returns "glorot_uniform".
func (GlorotUniform) Name() string { return "glorot_uniform" }

// Init fills a tensor with uniform values.
func (GlorotUniform) Init(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor {
	limit := float32(math.Sqrt(6.0 / float64(max(fanIn+fanOut, 1))))
	return tensor.Uniform(shape, -limit, limit, rng)
}

// ConstantInit fills every element with Value.
type ConstantInit struct {
	Value float32
}

// Name returns "zeros", "ones" or "constant".
func (c ConstantInit) Name() string {
	switch c.Value {
	case 0:
		return "zeros"
	case 1:
		return "ones"
	}
	return "constant"
}

// Init fills a tensor with the constant.
func (c ConstantInit) Init(shape tensor.Shape, _, _ int, _ *rand.Rand) *tensor.Tensor {
	return tensor.Full(shape, c.Value)
}

// Zeros initializes with 0 (biases, beta, moving mean).
var Zeros Initializer = ConstantInit{Value: 0}

// Ones initializes with 1 (gamma, moving variance).
var Ones Initializer = ConstantInit{Value: 1}

// ParseInitializer maps a config name to an Initializer.
func ParseInitializer(name string) (Initializer, error) {
	switch name {
	case "he_normal":
		return HeNormal{}, nil
	case "glorot_uniform", "xavier":
		return GlorotUniform{}, nil
	case "zeros":
		return Zeros, nil
	case "ones":
		return Ones, nil
	}
	return nil, fmt.Errorf("nn: unknown initializer %q", name)
}

// convFans returns fan_in and fan_out for a [KH, KW, C_in, C_out] kernel.
func convFans(kh, kw, cin, cout int) (fanIn, fanOut int) {
	return kh * kw * cin, kh * kw * cout
}

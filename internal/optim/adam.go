package optim

import (
	"math"

	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float32
	beta1 float32
	beta2 float32
	eps   float32
	t     int                              // Timestep for bias correction
	m     map[*nn.Parameter]*tensor.Tensor // First moment estimates
	v     map[*nn.Parameter]*tensor.Tensor // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer with default hyperparameters where
// the config leaves them zero.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		m:     make(map[*nn.Parameter]*tensor.Tensor),
		v:     make(map[*nn.Parameter]*tensor.Tensor),
	}
}

// Step performs a single optimization step using Adam algorithm.
func (a *Adam) Step(params []*nn.Parameter) {
	a.t++

	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range trainableWithGrad(params) {
		m, ok := a.m[param]
		if !ok {
			m = tensor.ZerosLike(param.Tensor())
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = tensor.ZerosLike(param.Tensor())
			a.v[param] = v
		}

		g := param.Grad().Data()
		md, vd := m.Data(), v.Data()
		w := param.Tensor().Data()
		for i, gv := range g {
			md[i] = a.beta1*md[i] + (1.0-a.beta1)*gv
			vd[i] = a.beta2*vd[i] + (1.0-a.beta2)*gv*gv
			mHat := md[i] / biasCorrection1
			vHat := vd[i] / biasCorrection2
			w[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
func (a *Adam) GetTimestep() int {
	return a.t
}

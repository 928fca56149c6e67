package optim

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
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
type Adam[B tensor.Backend] struct {
	params []*nn.Parameter[B]
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int                            // Timestep for bias correction
	m      map[*nn.Parameter[B]][]float32 // First moment estimates
	v      map[*nn.Parameter[B]][]float32 // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer. Zero config fields take their defaults.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
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

	return &Adam[B]{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*nn.Parameter[B]][]float32),
		v:      make(map[*nn.Parameter[B]][]float32),
	}
}

// Step performs a single optimization step using Adam algorithm.
// Parameters with no gradient are skipped.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		data := param.Tensor().Data()

		m, ok := a.m[param]
		if !ok {
			m = make([]float32, len(data))
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = make([]float32, len(data))
			a.v[param] = v
		}

		for i, g := range grad {
			m[i] = a.beta1*m[i] + (1.0-a.beta1)*g
			v[i] = a.beta2*v[i] + (1.0-a.beta2)*g*g
			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2
			data[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
func (a *Adam[B]) GetTimestep() int {
	return a.t
}

// adamStepKey holds the timestep in Adam's state dict.
const adamStepKey = "step"

// StateDict returns the moment estimates as "<param>.exp_avg" and
// "<param>.exp_avg_sq", and the timestep as "step".
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor, 2*len(a.m)+1)
	for _, param := range a.params {
		if m, ok := a.m[param]; ok {
			state[param.Name()+".exp_avg"] = slotState(param, m)
			state[param.Name()+".exp_avg_sq"] = slotState(param, a.v[param])
		}
	}
	step := tensor.MustNewRaw(tensor.Shape{1}, tensor.Float64, tensor.CPU)
	step.AsFloat64()[0] = float64(a.t)
	state[adamStepKey] = step
	return state
}

// LoadStateDict restores moment estimates and the timestep saved by StateDict.
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	step, ok := stateDict[adamStepKey]
	if !ok || step.NumElements() != 1 {
		return errors.Errorf("adam state: missing %q", adamStepKey)
	}
	if err := loadSlots(a.params, stateDict, map[string]map[*nn.Parameter[B]][]float32{
		"exp_avg":    a.m,
		"exp_avg_sq": a.v,
	}, adamStepKey); err != nil {
		return err
	}
	for param := range a.m {
		if _, ok := a.v[param]; !ok {
			return errors.Errorf("adam state: %s.exp_avg_sq missing", param.Name())
		}
	}
	a.t = int(step.Float64s()[0])
	return nil
}

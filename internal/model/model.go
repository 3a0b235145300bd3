package model

import (
	"context"
	"fmt"

	"github.com/julienmp/visualfeat/internal/tensor"
)

// Kind identifies which activation layout a loaded model produces. It is
// resolved once at load time from the model's declared outputs, so callers
// never probe structure per inference call.
type Kind int

const (
	// KindDualPathway: one pre-projection activation per pathway
	KindDualPathway Kind = iota
	// KindSingleActivation: a single spatial/temporal activation
	KindSingleActivation
	// KindClassification: final logits only, used as-is
	KindClassification
)

func (k Kind) String() string {
	switch k {
	case KindDualPathway:
		return "dual_pathway"
	case KindSingleActivation:
		return "single_activation"
	case KindClassification:
		return "classification"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Activation is the tagged bundle a model run produces. Exactly the fields
// implied by Kind are populated: Slow and Fast for KindDualPathway, Single
// for the other kinds.
type Activation struct {
	Kind   Kind
	Slow   *tensor.Dense
	Fast   *tensor.Dense
	Single *tensor.Dense
}

// Extractor runs the pretrained network on one dual-pathway input pair.
// Implementations declare their activation kind at construction and must
// not change it between calls.
type Extractor interface {
	Extract(ctx context.Context, slow, fast *tensor.Dense) (*Activation, error)
	Kind() Kind
	Close() error
}

// OutputSpec describes one declared model output
type OutputSpec struct {
	Name string
	Dims []int64
}

// Negotiate resolves the activation kind from a model's declared outputs:
// two outputs are the per-pathway activations, a single output of rank > 2
// is a pooled-able activation, and a single rank <= 2 output is the final
// classification head.
func Negotiate(outputs []OutputSpec) (Kind, error) {
	switch len(outputs) {
	case 2:
		return KindDualPathway, nil
	case 1:
		if len(outputs[0].Dims) > 2 {
			return KindSingleActivation, nil
		}
		return KindClassification, nil
	default:
		return 0, fmt.Errorf("model declares %d outputs, expected 1 or 2", len(outputs))
	}
}

// Features reduces an activation bundle to one fixed-length vector. Each
// pathway activation is globally average-pooled to a single value per
// channel and flattened; dual-pathway results are concatenated slow then
// fast. Classification outputs are returned as-is.
func Features(a *Activation) ([]float32, error) {
	switch a.Kind {
	case KindDualPathway:
		slowVec, err := tensor.AvgPoolChannels(a.Slow)
		if err != nil {
			return nil, fmt.Errorf("pool slow activation: %w", err)
		}
		fastVec, err := tensor.AvgPoolChannels(a.Fast)
		if err != nil {
			return nil, fmt.Errorf("pool fast activation: %w", err)
		}
		return append(slowVec, fastVec...), nil

	case KindSingleActivation:
		vec, err := tensor.AvgPoolChannels(a.Single)
		if err != nil {
			return nil, fmt.Errorf("pool activation: %w", err)
		}
		return vec, nil

	case KindClassification:
		return append([]float32(nil), a.Single.Data()...), nil

	default:
		return nil, fmt.Errorf("unknown activation kind %v", a.Kind)
	}
}

package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/julienmp/visualfeat/internal/tensor"
)

// SessionConfig configures the ONNX-backed extractor
type SessionConfig struct {
	// ModelPath points at the exported SlowFast network
	ModelPath string
	// Device is "cuda" or "cpu"
	Device string
	// RuntimeLib optionally overrides the onnxruntime shared library path
	RuntimeLib string
}

// SlowFastSession runs a pretrained two-pathway network via ONNX Runtime.
// The activation kind and output shapes are negotiated once from the model's
// declared outputs when the session is created.
type SlowFastSession struct {
	logger      zerolog.Logger
	session     *ort.DynamicAdvancedSession
	kind        Kind
	inputNames  []string
	outputNames []string
	outputDims  [][]int64
}

// NewSlowFastSession loads the model and resolves its extraction contract
func NewSlowFastSession(logger zerolog.Logger, cfg SessionConfig) (*SlowFastSession, error) {
	if cfg.RuntimeLib != "" {
		ort.SetSharedLibraryPath(cfg.RuntimeLib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		_ = ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to inspect model %s: %w", cfg.ModelPath, err)
	}
	if len(inputs) != 2 {
		_ = ort.DestroyEnvironment()
		return nil, fmt.Errorf("model declares %d inputs, expected slow and fast pathways", len(inputs))
	}

	inputNames := orderPathwayInputs(inputs)

	specs := make([]OutputSpec, len(outputs))
	outputNames := make([]string, len(outputs))
	outputDims := make([][]int64, len(outputs))
	for i, out := range outputs {
		specs[i] = OutputSpec{Name: out.Name, Dims: out.Dimensions}
		outputNames[i] = out.Name
		dims, err := resolveDims(out.Dimensions)
		if err != nil {
			_ = ort.DestroyEnvironment()
			return nil, fmt.Errorf("output %q: %w", out.Name, err)
		}
		outputDims[i] = dims
	}

	kind, err := Negotiate(specs)
	if err != nil {
		_ = ort.DestroyEnvironment()
		return nil, err
	}

	sessOpts, err := ort.NewSessionOptions()
	if err != nil {
		_ = ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessOpts.Destroy()

	device := cfg.Device
	if device == "cuda" {
		if err := appendCUDA(sessOpts); err != nil {
			logger.Warn().Err(err).Msg("CUDA provider unavailable, falling back to CPU")
			device = "cpu"
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, outputNames, sessOpts)
	if err != nil {
		_ = ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create inference session: %w", err)
	}

	logger.Info().
		Str("model", cfg.ModelPath).
		Str("device", device).
		Stringer("activation", kind).
		Strs("inputs", inputNames).
		Strs("outputs", outputNames).
		Msg("model loaded")

	return &SlowFastSession{
		logger:      logger.With().Str("component", "model").Logger(),
		session:     session,
		kind:        kind,
		inputNames:  inputNames,
		outputNames: outputNames,
		outputDims:  outputDims,
	}, nil
}

// Kind reports the negotiated activation layout
func (s *SlowFastSession) Kind() Kind {
	return s.kind
}

// Extract runs one forward pass over a dual-pathway input pair. Both
// tensors are (3, T, H, W); the batch dimension of one is added here.
func (s *SlowFastSession) Extract(ctx context.Context, slow, fast *tensor.Dense) (*Activation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slowIn, err := pathwayTensor(slow)
	if err != nil {
		return nil, fmt.Errorf("slow pathway input: %w", err)
	}
	defer slowIn.Destroy()

	fastIn, err := pathwayTensor(fast)
	if err != nil {
		return nil, fmt.Errorf("fast pathway input: %w", err)
	}
	defer fastIn.Destroy()

	outputs := make([]ort.ArbitraryTensor, len(s.outputDims))
	for i, dims := range s.outputDims {
		out, err := ort.NewEmptyTensor[float32](ort.NewShape(dims...))
		if err != nil {
			return nil, fmt.Errorf("failed to allocate output tensor %s: %w", s.outputNames[i], err)
		}
		defer out.Destroy()
		outputs[i] = out
	}

	if err := s.session.Run([]ort.ArbitraryTensor{slowIn, fastIn}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	dense := make([]*tensor.Dense, len(outputs))
	for i, out := range outputs {
		dense[i], err = denseFromOrt(out.(*ort.Tensor[float32]))
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", s.outputNames[i], err)
		}
	}

	switch s.kind {
	case KindDualPathway:
		return &Activation{Kind: KindDualPathway, Slow: dense[0], Fast: dense[1]}, nil
	default:
		return &Activation{Kind: s.kind, Single: dense[0]}, nil
	}
}

// Close releases the session and ONNX environment
func (s *SlowFastSession) Close() error {
	s.logger.Debug().Msg("closing model session")
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return err
		}
		s.session = nil
	}
	return ort.DestroyEnvironment()
}

// orderPathwayInputs returns input names ordered slow first, fast second,
// using declared names where they are recognizable and declaration order
// otherwise
func orderPathwayInputs(inputs []ort.InputOutputInfo) []string {
	names := []string{inputs[0].Name, inputs[1].Name}
	if strings.Contains(strings.ToLower(names[0]), "fast") ||
		strings.Contains(strings.ToLower(names[1]), "slow") {
		names[0], names[1] = names[1], names[0]
	}
	return names
}

// resolveDims fixes the declared output shape for pre-allocation. Only the
// batch dimension may be dynamic; it resolves to one. Any other dynamic
// dimension means the export does not satisfy the static extraction
// contract and is rejected at load time.
func resolveDims(declared []int64) ([]int64, error) {
	if len(declared) == 0 {
		return nil, fmt.Errorf("output has no declared shape")
	}
	dims := make([]int64, len(declared))
	copy(dims, declared)
	if dims[0] <= 0 {
		dims[0] = 1
	}
	for i := 1; i < len(dims); i++ {
		if dims[i] <= 0 {
			return nil, fmt.Errorf("dynamic dimension %d in declared shape %v", i, declared)
		}
	}
	return dims, nil
}

// appendCUDA enables the CUDA execution provider on the session. An error
// here means the provider is not available in the loaded runtime library.
func appendCUDA(sessOpts *ort.SessionOptions) error {
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOpts.Destroy()
	if err := cudaOpts.Update(map[string]string{"device_id": "0"}); err != nil {
		return err
	}
	return sessOpts.AppendExecutionProviderCUDA(cudaOpts)
}

func pathwayTensor(d *tensor.Dense) (*ort.Tensor[float32], error) {
	dims := make([]int64, 0, d.Rank()+1)
	dims = append(dims, 1)
	for _, s := range d.Shape() {
		dims = append(dims, int64(s))
	}
	return ort.NewTensor(ort.NewShape(dims...), d.Data())
}

func denseFromOrt(t *ort.Tensor[float32]) (*tensor.Dense, error) {
	ortShape := t.GetShape()
	shape := make([]int, len(ortShape))
	for i, s := range ortShape {
		shape[i] = int(s)
	}
	data := append([]float32(nil), t.GetData()...)
	return tensor.FromSlice(data, shape...)
}

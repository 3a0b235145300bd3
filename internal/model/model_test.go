package model

import (
	"testing"

	"github.com/julienmp/visualfeat/internal/tensor"
)

func TestNegotiateDualPathway(t *testing.T) {
	kind, err := Negotiate([]OutputSpec{
		{Name: "slow_features", Dims: []int64{1, 2048, 8, 7, 7}},
		{Name: "fast_features", Dims: []int64{1, 256, 32, 7, 7}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindDualPathway {
		t.Errorf("got %v, want dual pathway", kind)
	}
}

func TestNegotiateSingleActivation(t *testing.T) {
	kind, err := Negotiate([]OutputSpec{
		{Name: "features", Dims: []int64{1, 2304, 4, 7, 7}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindSingleActivation {
		t.Errorf("got %v, want single activation", kind)
	}
}

func TestNegotiateClassification(t *testing.T) {
	kind, err := Negotiate([]OutputSpec{
		{Name: "logits", Dims: []int64{1, 400}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindClassification {
		t.Errorf("got %v, want classification", kind)
	}
}

func TestNegotiateRejectsUnknownLayouts(t *testing.T) {
	if _, err := Negotiate(nil); err == nil {
		t.Error("expected error for zero outputs")
	}
	three := []OutputSpec{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	if _, err := Negotiate(three); err == nil {
		t.Error("expected error for three outputs")
	}
}

func fill(d *tensor.Dense, v float32) *tensor.Dense {
	for i := range d.Data() {
		d.Data()[i] = v
	}
	return d
}

func TestFeaturesDualPathwayConcatenation(t *testing.T) {
	a := &Activation{
		Kind: KindDualPathway,
		Slow: fill(tensor.New(1, 4, 2, 3, 3), 2),
		Fast: fill(tensor.New(1, 6, 8, 3, 3), 5),
	}

	vec, err := Features(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 10 {
		t.Fatalf("expected 4+6=10 features, got %d", len(vec))
	}
	for i := 0; i < 4; i++ {
		if vec[i] != 2 {
			t.Errorf("slow channel %d: got %f want 2", i, vec[i])
		}
	}
	for i := 4; i < 10; i++ {
		if vec[i] != 5 {
			t.Errorf("fast channel %d: got %f want 5", i-4, vec[i])
		}
	}
}

func TestFeaturesSingleActivationPools(t *testing.T) {
	a := &Activation{
		Kind:   KindSingleActivation,
		Single: fill(tensor.New(1, 16, 4, 7, 7), 3),
	}
	vec, err := Features(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 16 {
		t.Fatalf("expected 16 features, got %d", len(vec))
	}
	for i, v := range vec {
		if v != 3 {
			t.Errorf("channel %d: got %f want 3", i, v)
		}
	}
}

func TestFeaturesClassificationPassthrough(t *testing.T) {
	logits := tensor.New(1, 400)
	for i := range logits.Data() {
		logits.Data()[i] = float32(i)
	}
	a := &Activation{Kind: KindClassification, Single: logits}

	vec, err := Features(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 400 {
		t.Fatalf("expected 400 logits, got %d", len(vec))
	}
	if vec[7] != 7 {
		t.Errorf("logits should pass through unchanged, got %f at 7", vec[7])
	}

	// Mutating the result must not touch the activation
	vec[0] = -1
	if logits.Data()[0] == -1 {
		t.Error("Features should copy classification output")
	}
}

package domain

import (
	"math"
	"testing"
)

func TestDefaultHotnessWeights_SumToOne(t *testing.T) {
	if err := DefaultHotnessWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
}

func TestHotnessWeights_ValidateRejectsBadSum(t *testing.T) {
	w := HotnessWeights{Materiality: 0.5, Velocity: 0.5, Breadth: 0.5}
	if err := w.Validate(); err == nil {
		t.Fatal("expected error for weights summing to 1.5")
	}
}

func TestHotnessWeights_CombineStaysBounded(t *testing.T) {
	w := DefaultHotnessWeights()
	cases := []HotnessComponents{
		{},
		{Materiality: 1, Velocity: 1, Breadth: 1, Credibility: 1, Unexpectedness: 1},
		{Materiality: 0.3, Credibility: 0.5},
		{Velocity: math.NaN()},
	}
	for _, c := range cases {
		got := w.Combine(c)
		if got < 0 || got > 1 || math.IsNaN(got) {
			t.Errorf("Combine(%+v) = %f, out of [0,1]", c, got)
		}
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, c := range cases {
		if got := Clamp01(c.in); got != c.want {
			t.Errorf("Clamp01(%f) = %f, want %f", c.in, got, c.want)
		}
	}
}

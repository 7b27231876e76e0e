package store

import (
	"math"
	"strings"
	"testing"
)

func TestToVectorLiteral(t *testing.T) {
	t.Parallel()

	s := NewVectorStore(nil, 3)

	literal, err := s.toVectorLiteral([]float64{1, -0.5, 0.25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if literal != "[1,-0.5,0.25]" {
		t.Fatalf("unexpected literal: %q", literal)
	}
	if !strings.HasPrefix(literal, "[") || !strings.HasSuffix(literal, "]") {
		t.Fatalf("literal must be bracketed: %q", literal)
	}
}

func TestToVectorLiteralRejectsWrongDimensions(t *testing.T) {
	t.Parallel()

	s := NewVectorStore(nil, 3)
	if _, err := s.toVectorLiteral([]float64{1, 2}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestToVectorLiteralRejectsNonFiniteValues(t *testing.T) {
	t.Parallel()

	s := NewVectorStore(nil, 2)
	if _, err := s.toVectorLiteral([]float64{1, math.NaN()}); err == nil {
		t.Fatalf("expected error for NaN component")
	}
	if _, err := s.toVectorLiteral([]float64{math.Inf(1), 0}); err == nil {
		t.Fatalf("expected error for infinite component")
	}
}

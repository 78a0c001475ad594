package geometry

import (
	"math"
	"testing"
)

func TestRectangleArea(t *testing.T) {
	got, err := RectangleArea(4, 2.5)
	if err != nil {
		t.Fatalf("RectangleArea failed: %v", err)
	}
	if got.Area != 10 {
		t.Errorf("Area = %v, want 10", got.Area)
	}
	if got.Formula != "Area = width × height" {
		t.Errorf("Formula = %q", got.Formula)
	}
	if got.Inputs["width"] != 4 || got.Inputs["height"] != 2.5 {
		t.Errorf("Inputs = %v", got.Inputs)
	}

	if _, err := RectangleArea(-1, 2); err == nil {
		t.Error("negative width should fail")
	}
	if _, err := RectangleArea(1, 0); err == nil {
		t.Error("zero height should fail")
	}
}

func TestCircleArea(t *testing.T) {
	got, err := CircleArea(2)
	if err != nil {
		t.Fatalf("CircleArea failed: %v", err)
	}
	want := math.Round(math.Pi*4*10000) / 10000
	if got.Area != want {
		t.Errorf("Area = %v, want %v (4dp)", got.Area, want)
	}
	if got.Formula != "Area = π × r²" {
		t.Errorf("Formula = %q", got.Formula)
	}

	if _, err := CircleArea(0); err == nil {
		t.Error("zero radius should fail")
	}
}

func TestTriangleArea(t *testing.T) {
	got, err := TriangleArea(6, 3)
	if err != nil {
		t.Fatalf("TriangleArea failed: %v", err)
	}
	if got.Area != 9 {
		t.Errorf("Area = %v, want 9", got.Area)
	}
	if got.Formula != "Area = ½ × base × height" {
		t.Errorf("Formula = %q", got.Formula)
	}

	if _, err := TriangleArea(0, 3); err == nil {
		t.Error("zero base should fail")
	}
}

// Package geometry computes areas of the supported plane shapes.
package geometry

import (
	"fmt"
	"math"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// AreaResult describes a computed area together with the formula used
// and the inputs that produced it.
type AreaResult struct {
	Shape   string
	Area    float64
	Formula string
	Inputs  map[string]float64
}

// RectangleArea computes width × height.
func RectangleArea(width, height float64) (*AreaResult, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("Width and height must be positive")
	}
	return &AreaResult{
		Shape:   "rectangle",
		Area:    width * height,
		Formula: "Area = width × height",
		Inputs:  map[string]float64{"width": width, "height": height},
	}, nil
}

// CircleArea computes πr², rounded to 4 decimal places.
func CircleArea(radius float64) (*AreaResult, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("Radius must be positive")
	}
	return &AreaResult{
		Shape:   "circle",
		Area:    expr.Round(math.Pi*radius*radius, 4),
		Formula: "Area = π × r²",
		Inputs:  map[string]float64{"radius": radius},
	}, nil
}

// TriangleArea computes ½ × base × height.
func TriangleArea(base, height float64) (*AreaResult, error) {
	if base <= 0 || height <= 0 {
		return nil, fmt.Errorf("Base and height must be positive")
	}
	return &AreaResult{
		Shape:   "triangle",
		Area:    base * height / 2,
		Formula: "Area = ½ × base × height",
		Inputs:  map[string]float64{"base": base, "height": height},
	}, nil
}

package region

import (
	"math"
	"testing"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/geom"
)

func TestContains(t *testing.T) {
	warrior := Region{Left: -0.3, Right: 0.3, Top: 0.4, Bottom: 0}
	tall := Region{Left: -0.5, Right: 0.5, Top: 1.0, Bottom: 0}

	tests := []struct {
		name string
		r    Region
		x, y float64
		want bool
	}{
		{"center", warrior, 0, 0.2, true},
		{"bottom left corner", warrior, -0.3, 0, true},
		{"bottom right corner", warrior, 0.3, 0, true},
		{"top left corner", warrior, -0.3, 0.4, true},
		{"top right corner", warrior, 0.3, 0.4, true},
		{"above short box", warrior, 0, 0.7, false},
		{"inside tall box", tall, 0, 0.7, true},
		{"below", warrior, 0, -0.01, false},
		{"left", warrior, -0.31, 0.2, false},
		{"right", tall, 0.51, 0.5, false},
		{"above tall box", tall, 0, 1.01, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestContainsSwappedEdges(t *testing.T) {
	r := Region{Left: 0.5, Right: -0.5, Top: -1, Bottom: 0}
	if !r.Contains(0, -0.5) {
		t.Error("Expected swapped edges to be normalized")
	}
	if r.Contains(0, 0.5) {
		t.Error("Point above the normalized box must be rejected")
	}
	minX, minY, maxX, maxY := r.Bounds()
	if minX != -0.5 || maxX != 0.5 || minY != -1 || maxY != 0 {
		t.Errorf("Bounds = (%v, %v, %v, %v)", minX, minY, maxX, maxY)
	}
}

func TestEmpty(t *testing.T) {
	var zero Region
	if !zero.Empty() {
		t.Error("Zero region must be empty")
	}
	if !zero.Contains(0, 0) {
		t.Error("A degenerate box still contains its only point")
	}
	if (Region{Left: -1, Right: 1, Top: 1}).Empty() {
		t.Error("Expected non-empty region")
	}
}

func TestFromHoverArea(t *testing.T) {
	r := FromHoverArea(descriptor.HoverArea{Left: -0.3, Right: 0.3, Top: 0.4, Bottom: 0})
	if r != (Region{Left: -0.3, Right: 0.3, Top: 0.4, Bottom: 0}) {
		t.Errorf("FromHoverArea = %+v", r)
	}
}

func TestNormalize(t *testing.T) {
	x, y := Normalize(30, -70, 60, 140)
	if x != 0.5 || y != -0.5 {
		t.Errorf("Normalize = (%v, %v), want (0.5, -0.5)", x, y)
	}
	x, y = Normalize(5, 5, 0, 10)
	if x != 0 || y != 0.5 {
		t.Errorf("Normalize with zero width = (%v, %v), want (0, 0.5)", x, y)
	}
}

func TestContainsWorld(t *testing.T) {
	src := descriptor.Source{ID: "body", SizeX: 60, SizeY: 140, PivotX: 30, PivotY: 70}
	r := Region{Left: -0.3, Right: 0.3, Top: 0.4, Bottom: 0}
	bone := geom.Transform{X: 10, Y: 5, ScaleX: 1, ScaleY: 1}
	const scale = 0.01

	// 锚点右 0.1、上 0.28 世界单位：(10 px, 28 px) -> (0.167, 0.2)
	if !r.ContainsWorld(bone, src, scale, 10.1, 5.28) {
		t.Error("Expected point inside the hover area")
	}
	if r.ContainsWorld(bone, src, scale, 10.1, 4.9) {
		t.Error("Expected point below the pivot to be outside")
	}

	// 骨骼旋转半圈后区域翻到锚点下方
	flipped := geom.Transform{X: 10, Y: 5, Angle: math.Pi, ScaleX: 1, ScaleY: 1}
	if !r.ContainsWorld(flipped, src, scale, 10, 4.8) {
		t.Error("Expected flipped area to contain a point below the pivot")
	}

	if r.ContainsWorld(bone, src, 0, 10, 5) {
		t.Error("Zero sprite scale must not hit")
	}
}

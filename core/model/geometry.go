package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// GridPosition is a point on the factory floor grid. Values are immutable;
// every helper returns a new position.
type GridPosition struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pos is shorthand for building a GridPosition.
func Pos(x, y float64) GridPosition { return GridPosition{X: x, Y: y} }

func (p GridPosition) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func fromVec(v r2.Vec) GridPosition { return GridPosition{X: v.X, Y: v.Y} }

// Distance returns the euclidean distance between p and q.
func (p GridPosition) Distance(q GridPosition) float64 {
	return r2.Norm(r2.Sub(q.vec(), p.vec()))
}

// Step moves p toward target by at most maxDist. When the target is within
// maxDist the target itself is returned and arrived is true, so callers land
// exactly on waypoints.
func (p GridPosition) Step(target GridPosition, maxDist float64) (next GridPosition, arrived bool) {
	d := r2.Sub(target.vec(), p.vec())
	dist := r2.Norm(d)
	if dist <= maxDist {
		return target, true
	}
	return fromVec(r2.Add(p.vec(), r2.Scale(maxDist, r2.Unit(d)))), false
}

// InBounds reports whether both coordinates lie in [min, max].
func (p GridPosition) InBounds(min, max float64) bool {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return false
	}
	return p.X >= min && p.X <= max && p.Y >= min && p.Y <= max
}

// Round snaps both coordinates to the nearest integer.
func (p GridPosition) Round() GridPosition {
	return GridPosition{X: math.Round(p.X), Y: math.Round(p.Y)}
}

func (p GridPosition) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// PathLength sums the leg lengths travelling from start through every waypoint.
func PathLength(start GridPosition, path []GridPosition) float64 {
	total := 0.0
	cur := start
	for _, wp := range path {
		total += cur.Distance(wp)
		cur = wp
	}
	return total
}

// StraightPath returns the integer grid points on the line from start to end,
// one per unit of the longer axis. start itself is excluded and end is always
// the final element.
func StraightPath(start, end GridPosition) []GridPosition {
	dx := end.X - start.X
	dy := end.Y - start.Y
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		if start == end {
			return nil
		}
		return []GridPosition{end}
	}
	path := make([]GridPosition, 0, steps)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		path = append(path, GridPosition{X: start.X + dx*t, Y: start.Y + dy*t}.Round())
	}
	path[len(path)-1] = end
	return path
}

// Viewport maps grid coordinates onto a rendering surface of Width x Height
// pixels for a square grid of GridSize cells indexed 0..GridSize-1.
type Viewport struct {
	Width    float64
	Height   float64
	GridSize float64
}

// ToView converts a grid position into view coordinates.
func (v Viewport) ToView(p GridPosition) GridPosition {
	if v.GridSize <= 1 {
		return p
	}
	span := v.GridSize - 1
	return GridPosition{X: p.X / span * v.Width, Y: p.Y / span * v.Height}
}

// ToGrid converts view coordinates back into rounded grid coordinates.
func (v Viewport) ToGrid(p GridPosition) GridPosition {
	if v.Width == 0 || v.Height == 0 || v.GridSize <= 1 {
		return p
	}
	span := v.GridSize - 1
	return GridPosition{X: p.X / v.Width * span, Y: p.Y / v.Height * span}.Round()
}

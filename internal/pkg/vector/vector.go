package vector

import "math"

// Vector is a 2D float64 vector in touchpad space, X grows right and Y grows down
type Vector struct {
	X, Y float64
}

func New(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

func (v Vector) Add(o Vector) Vector {
	return Vector{v.X + o.X, v.Y + o.Y}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{v.X - o.X, v.Y - o.Y}
}

func (v Vector) Neg() Vector {
	return Vector{-v.X, -v.Y}
}

func (v Vector) Scale(s float64) Vector {
	return Vector{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and o
func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vector) Norm2() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.Norm2())
}

// Normalize returns unit vector of v, zero vector stays zero
func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return Vector{}
	}
	return Vector{v.X / n, v.Y / n}
}

// AngleBetween returns the unsigned angle between a and b in radians (0..π).
// When any of vectors has zero length the angle is undefined and +Inf is returned,
// so every "angle < limit" comparison fails for it.
func AngleBetween(a, b Vector) float64 {
	if a.Norm() == 0 || b.Norm() == 0 {
		return math.Inf(1)
	}
	return math.Atan2(math.Abs(a.X*b.Y-a.Y*b.X), a.Dot(b))
}

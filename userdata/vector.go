package userdata

import (
	"math"
	"unsafe"

	"github.com/goobie/glua-bridge/lua"
)

// Vector is the engine's three-component float vector.
type Vector struct {
	X, Y, Z float32
}

func (v Vector) Add(o Vector) Vector { return Vector{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vector) Sub(o Vector) Vector { return Vector{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vector) Scale(f float32) Vector { return Vector{v.X * f, v.Y * f, v.Z * f} }

func (v Vector) Dot(o Vector) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vector) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Angle is the engine's pitch/yaw/roll triple, in degrees.
type Angle struct {
	P, Y, R float32
}

// Normalized wraps every component into [-180, 180).
func (a Angle) Normalized() Angle {
	return Angle{normalizeDegrees(a.P), normalizeDegrees(a.Y), normalizeDegrees(a.R)}
}

func normalizeDegrees(d float32) float32 {
	w := float32(math.Mod(float64(d)+180, 360))
	if w < 0 {
		w += 360
	}
	return w - 180
}

// PushVector pushes v as a VM-owned tagged block, attaching the host's
// Vector metatable when the registry carries one.
func PushVector(l lua.State, v Vector) {
	*(*Vector)(New(l, TagVector, unsafe.Sizeof(Vector{}))) = v
	attachMetatable(l, "Vector")
}

// VectorAt copies the vector at index off the stack.
func VectorAt(l lua.State, index int32) (Vector, error) {
	p, err := Coerce[Vector](l, index)
	if err != nil {
		return Vector{}, err
	}
	return *p, nil
}

// PushAngle pushes a as a VM-owned tagged block, attaching the host's
// Angle metatable when the registry carries one.
func PushAngle(l lua.State, a Angle) {
	*(*Angle)(New(l, TagAngle, unsafe.Sizeof(Angle{}))) = a
	attachMetatable(l, "Angle")
}

// AngleAt copies the angle at index off the stack.
func AngleAt(l lua.State, index int32) (Angle, error) {
	p, err := Coerce[Angle](l, index)
	if err != nil {
		return Angle{}, err
	}
	return *p, nil
}

func attachMetatable(l lua.State, name string) {
	l.GetMetatableName(name)
	if l.IsTable(-1) {
		l.SetMetatable(-2)
		return
	}
	l.Pop()
}

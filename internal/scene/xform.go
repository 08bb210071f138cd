package scene

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Transform composition uses 4x4 homogeneous matrices. A node's local
// transform is the product of its ops applied in listed order; a node's world
// transform composes every ancestor's local transform above its own.

func identity() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

func translation(v r3.Vector) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, v.X,
		0, 1, 0, v.Y,
		0, 0, 1, v.Z,
		0, 0, 0, 1,
	})
}

// rotationXYZ builds the rotation for rotateXYZ euler angles in degrees:
// rotate about X, then Y, then Z.
func rotationXYZ(deg r3.Vector) *mat.Dense {
	rx := deg.X * math.Pi / 180
	ry := deg.Y * math.Pi / 180
	rz := deg.Z * math.Pi / 180

	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)

	mx := mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, cx, -sx, 0,
		0, sx, cx, 0,
		0, 0, 0, 1,
	})
	my := mat.NewDense(4, 4, []float64{
		cy, 0, sy, 0,
		0, 1, 0, 0,
		-sy, 0, cy, 0,
		0, 0, 0, 1,
	})
	mz := mat.NewDense(4, 4, []float64{
		cz, -sz, 0, 0,
		sz, cz, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	out := mul(mz, mul(my, mx))
	return out
}

func scale(v r3.Vector) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	})
}

func opMatrix(op Op) *mat.Dense {
	switch op.Type {
	case OpTranslate:
		return translation(op.Value)
	case OpRotateXYZ:
		return rotationXYZ(op.Value)
	case OpScale:
		return scale(op.Value)
	}
	return identity()
}

func mul(a, b *mat.Dense) *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	out.Mul(a, b)
	return out
}

// LocalTransform returns the node's local transform matrix.
func (n *Node) LocalTransform() *mat.Dense {
	m := identity()
	for _, op := range n.Ops {
		m = mul(opMatrix(op), m)
	}
	return m
}

// WorldTransform composes the transform from the stage root down to the prim
// at path.
func (g *Graph) WorldTransform(path string) (*mat.Dense, error) {
	n, err := g.Require(path)
	if err != nil {
		return nil, err
	}
	m := n.LocalTransform()
	for p := parentPath(path); p != ""; p = parentPath(p) {
		if parent, ok := g.index[p]; ok {
			m = mul(parent.LocalTransform(), m)
		}
	}
	return m, nil
}

// WorldPosition returns the prim origin in world coordinates.
func (g *Graph) WorldPosition(path string) (r3.Vector, error) {
	m, err := g.WorldTransform(path)
	if err != nil {
		return r3.Vector{}, err
	}
	return TransformPoint(m, r3.Vector{}), nil
}

// TransformPoint applies a homogeneous transform to a point.
func TransformPoint(m *mat.Dense, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3),
		Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3),
	}
}

// TransformDirection applies only the rotational part of a transform to a
// direction vector.
func TransformDirection(m *mat.Dense, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

// Package geometry holds the 2D/3D coordinate transforms shared by the
// sampler and the rasterizers. Matrices are gonum dense matrices; 2D
// transforms are 3x3 homogeneous.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RotationZ returns the 3x3 rotation about the z axis by yaw radians.
func RotationZ(yaw float64) *mat.Dense {
	c, s := math.Cos(yaw), math.Sin(yaw)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// YawFromRotation extracts the heading about z from a 3x3 rotation matrix.
func YawFromRotation(r mat.Matrix) float64 {
	return math.Atan2(r.At(1, 0), r.At(0, 0))
}

// Translation2D returns the homogeneous translation by (tx, ty).
func Translation2D(tx, ty float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, tx,
		0, 1, ty,
		0, 0, 1,
	})
}

// Scale2D returns the homogeneous axis scaling by (sx, sy).
func Scale2D(sx, sy float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		sx, 0, 0,
		0, sy, 0,
		0, 0, 1,
	})
}

// Compose multiplies transforms right to left: Compose(A, B, C) = A·B·C,
// so C is applied first.
func Compose(ms ...mat.Matrix) *mat.Dense {
	out := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	for _, m := range ms {
		var next mat.Dense
		next.Mul(out, m)
		out = &next
	}
	return out
}

// TransformPoint applies a 3x3 homogeneous transform to a 2D point.
func TransformPoint(p [2]float64, m mat.Matrix) [2]float64 {
	v := mat.NewVecDense(3, []float64{p[0], p[1], 1})
	var out mat.VecDense
	out.MulVec(m, v)
	w := out.AtVec(2)
	if w == 0 {
		w = 1
	}
	return [2]float64{out.AtVec(0) / w, out.AtVec(1) / w}
}

// TransformPoints applies a 3x3 homogeneous transform to each point.
func TransformPoints(points [][2]float64, m mat.Matrix) [][2]float64 {
	if len(points) == 0 {
		return nil
	}
	in := mat.NewDense(3, len(points), nil)
	for i, p := range points {
		in.Set(0, i, p[0])
		in.Set(1, i, p[1])
		in.Set(2, i, 1)
	}
	var res mat.Dense
	res.Mul(m, in)

	out := make([][2]float64, len(points))
	for i := range points {
		w := res.At(2, i)
		if w == 0 {
			w = 1
		}
		out[i] = [2]float64{res.At(0, i) / w, res.At(1, i) / w}
	}
	return out
}

// WorldToLocal expresses p in the frame whose origin is at origin and
// whose x axis points along yaw. The translation is subtracted before
// rotating, so p == origin yields exactly the zero vector.
func WorldToLocal(p, origin [2]float64, yaw float64) [2]float64 {
	dx := p[0] - origin[0]
	dy := p[1] - origin[1]
	c, s := math.Cos(yaw), math.Sin(yaw)
	return [2]float64{c*dx + s*dy, -s*dx + c*dy}
}

// WorldToLocalMatrix is the homogeneous form of WorldToLocal.
func WorldToLocalMatrix(origin [2]float64, yaw float64) *mat.Dense {
	return Compose(RotationZ(-yaw), Translation2D(-origin[0], -origin[1]))
}

// NormalizeAngle wraps a into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	switch {
	case a > math.Pi:
		a -= 2 * math.Pi
	case a <= -math.Pi:
		a += 2 * math.Pi
	}
	return a
}

// WorldToImagePixels builds the transform from world metres to raster
// pixels for an image centred on (centroid, yaw). egoCenter is the
// anchor position as a fraction of the raster size, pixelSize is metres
// per pixel.
func WorldToImagePixels(rasterSize [2]int, pixelSize [2]float64, centroid [2]float64, yaw float64, egoCenter [2]float64) *mat.Dense {
	worldToEgo := WorldToLocalMatrix(centroid, yaw)
	scale := Scale2D(1/pixelSize[0], 1/pixelSize[1])
	center := Translation2D(egoCenter[0]*float64(rasterSize[0]), egoCenter[1]*float64(rasterSize[1]))
	return Compose(center, scale, worldToEgo)
}

// ToArray copies a 3x3 matrix into a fixed-size array.
func ToArray(m mat.Matrix) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// FromArray builds a 3x3 gonum matrix from a fixed-size array.
func FromArray(a [3][3]float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		a[0][0], a[0][1], a[0][2],
		a[1][0], a[1][1], a[1][2],
		a[2][0], a[2][1], a[2][2],
	})
}

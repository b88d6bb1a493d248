package math3d

import (
	"testing"
)

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := RotateY(0.5)

	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4MulVec3(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5))
	v := V3(1, 2, 3)

	for b.Loop() {
		_ = m.MulVec3(v)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(2, 2, 2)))

	for b.Loop() {
		_, _ = m.Inverse()
	}
}

func BenchmarkRayIntersectTriangle(b *testing.B) {
	ray := NewRay(V3(0.25, 0.25, 5), V3(0, 0, -1))
	a, c1, c2 := V3(0, 0, 0), V3(1, 0, 0), V3(0, 1, 0)

	for b.Loop() {
		_, _, _, _ = ray.IntersectTriangle(a, c1, c2)
	}
}

func BenchmarkRayMiss(b *testing.B) {
	ray := NewRay(V3(5, 5, 5), V3(0, 0, -1))
	a, c1, c2 := V3(0, 0, 0), V3(1, 0, 0), V3(0, 1, 0)

	for b.Loop() {
		_, _, _, _ = ray.IntersectTriangle(a, c1, c2)
	}
}

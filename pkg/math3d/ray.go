package math3d

// rayEpsilon rejects triangles nearly parallel to the ray and hits at the origin.
const rayEpsilon = 1e-9

// Ray represents a half-line in 3D space.
type Ray struct {
	Origin    Vec3
	Direction Vec3 // Normalized by NewRay
}

// NewRay creates a ray with a normalized direction.
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// Valid reports whether the ray can be cast: finite components and a
// non-zero direction.
func (r Ray) Valid() bool {
	return r.Origin.IsFinite() && r.Direction.IsFinite() && r.Direction.LenSq() > rayEpsilon
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectTriangle tests the ray against triangle (a, b, c) from either side
// (Möller–Trumbore). It returns the distance t along the ray and the
// barycentric weights (u, v) of b and c; the weight of a is 1-u-v.
func (r Ray) IntersectTriangle(a, b, c Vec3) (t, u, v float64, hit bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)

	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if det > -rayEpsilon && det < rayEpsilon {
		return 0, 0, 0, false // Parallel to the triangle plane
	}
	invDet := 1.0 / det

	s := r.Origin.Sub(a)
	u = s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = edge2.Dot(q) * invDet
	if t < rayEpsilon {
		return 0, 0, 0, false // Behind the origin
	}
	return t, u, v, true
}

// Package geometry holds the axis-aligned value types shared by the
// pallet builder and the truck loader: boxes, footprints, and the
// placements that pin them to a position.
package geometry

// Box is a physical item with axis-aligned dimensions and mass, tagged
// with the shipping order it belongs to. X, Y, Z are filled in by the
// pallet builder; a Box that hasn't been placed yet has them at zero.
type Box struct {
	W, D, H int
	MassKg  float64
	OrderID int64
	ItemCode string

	X, Y, Z int
}

// Top returns the z-coordinate of the box's top face.
func (b Box) Top() int { return b.Z + b.H }

// Footprint is a w×d rectangle, independent of height.
type Footprint struct {
	W, D int
}

// Area returns the footprint's area.
func (f Footprint) Area() int { return f.W * f.D }

// Fits reports whether a box of the given width/depth fits within this
// footprint, trying both the as-given orientation and a 90° rotation.
func (f Footprint) Fits(w, d int) bool {
	return (w <= f.W && d <= f.D) || (d <= f.W && w <= f.D)
}

// Position is a committed 2D placement: floor coordinates plus the
// rotation applied to reach them (0 or 90 degrees).
type Position struct {
	X, Y     int
	Rotation int
}

// Overlap3D reports whether two axis-aligned boxes, placed at the given
// origins, intersect in 3D. Touching faces (equal coordinates) do not
// count as overlap.
func Overlap3D(x1, y1, z1, w1, d1, h1, x2, y2, z2, w2, d2, h2 int) bool {
	return !(x1+w1 <= x2 || x2+w2 <= x1 ||
		y1+d1 <= y2 || y2+d2 <= y1 ||
		z1+h1 <= z2 || z2+h2 <= z1)
}

// Overlap2D reports whether two axis-aligned rectangles, placed at the
// given origins, intersect in 2D. Touching edges do not count as
// overlap.
func Overlap2D(x1, y1, w1, d1, x2, y2, w2, d2 int) bool {
	return !(x1+w1 <= x2 || x2+w2 <= x1 || y1+d1 <= y2 || y2+d2 <= y1)
}

// OverlapArea2D returns the area of intersection between two axis-
// aligned rectangles, or 0 if they don't overlap.
func OverlapArea2D(x1, y1, w1, d1, x2, y2, w2, d2 int) int {
	ox1, oy1 := max(x1, x2), max(y1, y2)
	ox2, oy2 := min(x1+w1, x2+w2), min(y1+d1, y2+d2)
	if ox1 >= ox2 || oy1 >= oy2 {
		return 0
	}
	return (ox2 - ox1) * (oy2 - oy1)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

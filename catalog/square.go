package catalog

// Square is an axis-aligned square anchored at its top-left corner
type Square struct {
	Size int
	X    int
	Y    int
}

func NewSquare(size, x, y int) Square {
	return Square{Size: size, X: x, Y: y}
}

// SplitIntoQuarters returns the four quarters in row-major order
func (s Square) SplitIntoQuarters() []Square {
	half := s.Size / 2
	return []Square{
		NewSquare(half, s.X, s.Y),
		NewSquare(half, s.X+half, s.Y),
		NewSquare(half, s.X, s.Y+half),
		NewSquare(half, s.X+half, s.Y+half),
	}
}

func (s Square) Area() int {
	return s.Size * s.Size
}

package transposition

// Dimensions returns every grid shape for a text of the given length, in
// ascending row order. Both sides are at least two, so a prime length yields
// no dimensions at all.
func Dimensions(length int) []Dimension {
	var dims []Dimension
	for rows := 2; rows <= length-1; rows++ {
		if length%rows == 0 {
			dims = append(dims, Dimension{Rows: rows, Cols: length / rows})
		}
	}
	return dims
}

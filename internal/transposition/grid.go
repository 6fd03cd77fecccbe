package transposition

import (
	"fmt"
)

// Grid is a fully populated rows x cols block of letters.
type Grid struct {
	rows  int
	cols  int
	cells []byte // row-major
}

// FillGrid writes text into a rows x cols grid column by column, top to
// bottom, starting with the leftmost column.
func FillGrid(text string, rows, cols int) (Grid, error) {
	if rows < 1 || cols < 1 || rows*cols != len(text) {
		return Grid{}, fmt.Errorf("grid %dx%d cannot hold %d characters", rows, cols, len(text))
	}
	g := Grid{rows: rows, cols: cols, cells: make([]byte, len(text))}
	i := 0
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			g.cells[r*cols+c] = text[i]
			i++
		}
	}
	return g, nil
}

func (g Grid) Rows() int { return g.rows }
func (g Grid) Cols() int { return g.cols }

// At returns the letter at row r, column c.
func (g Grid) At(r, c int) byte { return g.cells[r*g.cols+c] }

// ReadGrid emits each row with its cells taken in the given column order and
// concatenates the rows top to bottom. order must be a permutation of the
// grid's columns.
func ReadGrid(g Grid, order ColumnOrder) string {
	return string(g.readInto(make([]byte, 0, len(g.cells)), order))
}

func (g Grid) readInto(buf []byte, order ColumnOrder) []byte {
	buf = buf[:0]
	for r := 0; r < g.rows; r++ {
		row := g.cells[r*g.cols : (r+1)*g.cols]
		for _, c := range order {
			buf = append(buf, row[c])
		}
	}
	return buf
}

// ReadColumns reads the grid back in the order it was filled.
func ReadColumns(g Grid) string {
	buf := make([]byte, 0, len(g.cells))
	for c := 0; c < g.cols; c++ {
		for r := 0; r < g.rows; r++ {
			buf = append(buf, g.At(r, c))
		}
	}
	return string(buf)
}

// Decrypt reads ciphertext through a known grid shape and column order.
func Decrypt(ciphertext string, d Dimension, order ColumnOrder) (string, error) {
	if !order.IsPermutation(d.Cols) {
		return "", fmt.Errorf("column order %v is not a permutation of %d columns", order, d.Cols)
	}
	g, err := FillGrid(ciphertext, d.Rows, d.Cols)
	if err != nil {
		return "", err
	}
	return ReadGrid(g, order), nil
}

// Encrypt is the inverse of Decrypt: Decrypt(Encrypt(p, d, o), d, o) == p.
// Plaintext is laid out row by row, cell k of each row going to column
// order[k], and the columns are then emitted left to right.
func Encrypt(plaintext string, d Dimension, order ColumnOrder) (string, error) {
	if !order.IsPermutation(d.Cols) {
		return "", fmt.Errorf("column order %v is not a permutation of %d columns", order, d.Cols)
	}
	if d.Rows*d.Cols != len(plaintext) {
		return "", fmt.Errorf("grid %s cannot hold %d characters", d, len(plaintext))
	}
	g := Grid{rows: d.Rows, cols: d.Cols, cells: make([]byte, len(plaintext))}
	for r := 0; r < d.Rows; r++ {
		for k, c := range order {
			g.cells[r*d.Cols+c] = plaintext[r*d.Cols+k]
		}
	}
	return ReadColumns(g), nil
}

// Copyright © 2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package nw

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// Direction is where the score of a cell comes from.
type Direction uint8

const (
	Origin   Direction = iota // no predecessor, the top-left corner.
	Up                        // a gap in reference, consuming a query letter.
	Left                      // a gap in query, consuming a reference letter.
	Diagonal                  // a match or mismatch.
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "^"
	case Left:
		return "<"
	case Diagonal:
		return "\\"
	case Origin:
		return " "
	}
	return "?"
}

// matrix is the dynamic-programming matrix with h rows (query letters + 1)
// and w columns (reference letters + 1). Cells are stored row by row,
// the predecessor of a cell is implied by its direction:
// k-w for Up, k-1 for Left, and k-w-1 for Diagonal.
type matrix struct {
	scores []float64
	dirs   []Direction
	h, w   int
}

var poolMatrix = &sync.Pool{New: func() interface{} {
	return &matrix{
		scores: make([]float64, 0, 1024),
		dirs:   make([]Direction, 0, 1024),
	}
}}

// newMatrix returns a matrix from the object pool.
// Cells are not cleared as every cell is written in filling.
func newMatrix(h, w int) *matrix {
	m := poolMatrix.Get().(*matrix)
	n := h * w
	if cap(m.scores) < n {
		m.scores = make([]float64, n)
		m.dirs = make([]Direction, n)
	} else {
		m.scores = m.scores[:n]
		m.dirs = m.dirs[:n]
	}
	m.h, m.w = h, w
	return m
}

func recycleMatrix(m *matrix) {
	if m != nil {
		poolMatrix.Put(m)
	}
}

func idx(i, j, w int) int {
	return i*w + j
}

// write renders the matrix as a fixed-width text grid.
// Reference letters are on the top, and query letters on the left.
// A cell contains the direction symbol and the score:
//
//	^    gap in reference
//	<    gap in query
//	\    match/mismatch
func (m *matrix) write(wtr io.Writer, ref, query []string) error {
	buf := bufio.NewWriter(wtr)

	fmt.Fprintf(buf, "%-3s%9s", "", "")
	for _, s := range ref {
		fmt.Fprintf(buf, "%9s", s)
	}
	buf.WriteByte('\n')

	var k int
	for i := 0; i < m.h; i++ {
		if i == 0 {
			fmt.Fprintf(buf, "%-3s", "")
		} else {
			fmt.Fprintf(buf, "%-3s", query[i-1])
		}
		for j := 0; j < m.w; j++ {
			k = idx(i, j, m.w)
			fmt.Fprintf(buf, " %s%7.2f", m.dirs[k], m.scores[k])
		}
		buf.WriteByte('\n')
	}

	return buf.Flush()
}

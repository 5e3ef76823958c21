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
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
)

// AlignOptions contains options other than scores.
type AlignOptions struct {
	// keep the matrix in the alignment for rendering with WriteMatrix.
	// Only for debugging, the memory is O(m*n).
	SaveMatrix bool
}

// DefaultAlignOptions is the default AlignOptions.
var DefaultAlignOptions = AlignOptions{
	SaveMatrix: false,
}

// ErrNoMatrix means the matrix was not saved in alignment.
var ErrNoMatrix = errors.New("nw: matrix not saved, please set AlignOptions.SaveMatrix")

// Aligner implements the Needleman-Wunsch algorithm,
// which can apply to multiple pairs of reference and query sequences.
// The matrix is reused between alignments, so an Aligner
// should not be used in multiple goroutines.
type Aligner[L Letter[L]] struct {
	p   *Penalties
	opt *AlignOptions

	m *matrix
}

// NewAligner returns a new Aligner. Default values are used for nil arguments.
func NewAligner[L Letter[L]](p *Penalties, opt *AlignOptions) *Aligner[L] {
	if p == nil {
		p = &DefaultPenalties
	}
	if opt == nil {
		opt = &DefaultAlignOptions
	}
	return &Aligner[L]{p: p, opt: opt}
}

// RecycleAligner returns the matrix of an Aligner to the object pool.
func RecycleAligner[L Letter[L]](algn *Aligner[L]) {
	if algn != nil && algn.m != nil {
		recycleMatrix(algn.m)
		algn.m = nil
	}
}

// Penalties returns the penalties in use.
func (algn *Aligner[L]) Penalties() *Penalties { return algn.p }

// Align performs global alignment for two sequences with default options.
func Align[L Letter[L]](reference, query []L, p *Penalties) *Alignment[L] {
	algn := NewAligner[L](p, nil)
	aln := algn.Align(reference, query)
	RecycleAligner(algn)
	return aln
}

// Align performs global alignment for two sequences. Sequences are only read.
//
// When scores of the three candidates of a cell tie,
// a horizontal move (gap in query) is preferred, then a vertical one
// (gap in reference), and lastly the diagonal one.
func (algn *Aligner[L]) Align(reference, query []L) *Alignment[L] {
	p := algn.p
	h := len(query) + 1     // height of the matrix
	w := len(reference) + 1 // width of the matrix

	// ---------------------------------------------------
	// initialize

	if algn.m != nil {
		recycleMatrix(algn.m)
		algn.m = nil
	}
	m := newMatrix(h, w)
	scores, dirs := m.scores, m.dirs

	var i, j, k int

	// topleft most cell
	scores[0] = 0
	dirs[0] = Origin
	// the first column
	for i = 1; i < h; i++ {
		k = idx(i, 0, w)
		dirs[k] = Up
		switch {
		case !p.PenalizeStartGaps:
			scores[k] = 0
		case i == 1:
			scores[k] = p.GapOpen
		default:
			scores[k] = scores[k-w] + p.GapExt
		}
	}
	// the first row
	for j = 1; j < w; j++ {
		dirs[j] = Left
		switch {
		case !p.PenalizeStartGaps:
			scores[j] = 0
		case j == 1:
			scores[j] = p.GapOpen
		default:
			scores[j] = scores[j-1] + p.GapExt
		}
	}

	// ---------------------------------------------------
	// compute

	lastRow, lastCol := h-1, w-1
	var sLeft, sUp, sDiag, best float64
	var d Direction
	var q L
	for i = 1; i < h; i++ {
		q = query[i-1]
		for j = 1; j < w; j++ {
			k = idx(i, j, w)

			// horizontal, free in the last row for trailing gaps
			sLeft = scores[k-1]
			if i < lastRow || p.PenalizeEndGaps {
				if dirs[k-1] == Left {
					sLeft += p.GapExt
				} else {
					sLeft += p.GapOpen
				}
			}

			// vertical, free in the last column for trailing gaps
			sUp = scores[k-w]
			if j < lastCol || p.PenalizeEndGaps {
				if dirs[k-w] == Up {
					sUp += p.GapExt
				} else {
					sUp += p.GapOpen
				}
			}

			sDiag = scores[k-w-1] + MatchScore(p, q, reference[j-1])

			best, d = sLeft, Left
			if sUp > best {
				best, d = sUp, Up
			}
			if sDiag > best {
				best, d = sDiag, Diagonal
			}
			if math.IsNaN(best) {
				panic(fmt.Sprintf("nw: no valid score at (%d, %d)", i, j))
			}

			scores[k] = best
			dirs[k] = d
		}
	}

	// ---------------------------------------------------
	// traceback

	aln := &Alignment[L]{
		score:     scores[idx(lastRow, lastCol, w)],
		reference: reference,
		query:     query,
	}

	refRow := make([]Token[L], 0, h+w)
	qRow := make([]Token[L], 0, h+w)
	gap := Gap[L]()

	i, j = lastRow, lastCol
	for {
		k = idx(i, j, w)
		d = dirs[k]
		if d == Origin {
			if i != 0 || j != 0 {
				panic(fmt.Sprintf("nw: unexpected origin at (%d, %d)", i, j))
			}
			break
		}

		switch d {
		case Diagonal:
			qRow = append(qRow, NewToken(query[i-1]))
			refRow = append(refRow, NewToken(reference[j-1]))
			i--
			j--
		case Up:
			qRow = append(qRow, NewToken(query[i-1]))
			refRow = append(refRow, gap)
			i--
		case Left:
			qRow = append(qRow, gap)
			refRow = append(refRow, NewToken(reference[j-1]))
			j--
		default:
			panic(fmt.Sprintf("nw: unreachable direction %d at (%d, %d)", d, i, j))
		}
	}

	reverse(refRow)
	reverse(qRow)
	aln.pair = NewAlignmentPair(refRow, qRow)

	if algn.opt.SaveMatrix {
		aln.m = m // the alignment owns it now
	} else {
		algn.m = m
	}

	return aln
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// --------------------------------------------------------------

// Alignment is the result of a global alignment.
type Alignment[L Letter[L]] struct {
	pair  *AlignmentPair[L]
	score float64

	reference, query []L
	m                *matrix // only saved with AlignOptions.SaveMatrix
}

// RecycleAlignment returns the saved matrix to the object pool.
// The alignment pair is still available after that.
func RecycleAlignment[L Letter[L]](aln *Alignment[L]) {
	if aln != nil && aln.m != nil {
		recycleMatrix(aln.m)
		aln.m = nil
	}
}

// Score returns the score of the bottom-right cell.
func (aln *Alignment[L]) Score() float64 { return aln.score }

// NormalizedScore returns the score divided by the alignment length.
// It's 0 for an empty alignment.
func (aln *Alignment[L]) NormalizedScore() float64 {
	n := aln.pair.Len()
	if n == 0 {
		return 0
	}
	return aln.score / float64(n)
}

// Pair returns the aligned rows.
func (aln *Alignment[L]) Pair() *AlignmentPair[L] { return aln.pair }

// String returns the reference row and the query row in two lines.
func (aln *Alignment[L]) String() string {
	return fmt.Sprintf("%v\n%v", aln.pair.Reference, aln.pair.Query)
}

// WriteMatrix writes the traceability matrix.
func (aln *Alignment[L]) WriteMatrix(wtr io.Writer) error {
	if aln.m == nil {
		return ErrNoMatrix
	}
	ref := make([]string, len(aln.reference))
	for i, l := range aln.reference {
		ref[i] = l.String()
	}
	query := make([]string, len(aln.query))
	for i, l := range aln.query {
		query[i] = l.String()
	}
	return aln.m.write(wtr, ref, query)
}

// Matrix returns the text of the traceability matrix.
func (aln *Alignment[L]) Matrix() (string, error) {
	var buf bytes.Buffer
	if err := aln.WriteMatrix(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

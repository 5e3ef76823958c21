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
	"strconv"
	"sync"
)

// CIGAR represents the edit script of an alignment, reference as the target.
//
// Operations:
//
//	M    match
//	X    mismatch, one record per column
//	I    insertion, a gap in the reference row
//	D    deletion, a gap in the query row
type CIGAR[L Letter[L]] struct {
	Ops []*CIGARRecord[L]

	// Stats of all columns.
	AlignLen   uint32
	Matches    uint32
	Mismatches uint32
	Insertions uint32
	Deletions  uint32
	GapRegions uint32
}

// CIGARRecord records the operation and the number.
// Letters are the reference letter of a mismatch, inserted query letters,
// or deleted reference letters. They are not saved for matches.
type CIGARRecord[L Letter[L]] struct {
	N       uint32
	Op      byte
	Letters []L
}

// EditScript computes the CIGAR of the alignment pair.
// Columns of two gaps are skipped.
func (pair *AlignmentPair[L]) EditScript() *CIGAR[L] {
	cigar := &CIGAR[L]{Ops: make([]*CIGARRecord[L], 0, 8)}

	var r, q Token[L]
	for i := range pair.Reference {
		r, q = pair.Reference[i], pair.Query[i]
		switch {
		case r.gap && q.gap:
			continue
		case r.gap:
			cigar.Insertions++
			cigar.add('I', q.letter)
		case q.gap:
			cigar.Deletions++
			cigar.add('D', r.letter)
		case r.letter.Matches(q.letter):
			cigar.Matches++
			cigar.add('M', r.letter)
		default:
			cigar.Mismatches++
			cigar.Ops = append(cigar.Ops, &CIGARRecord[L]{N: 1, Op: 'X', Letters: []L{r.letter}})
		}
		cigar.AlignLen++
	}

	for _, op := range cigar.Ops {
		if op.Op == 'I' || op.Op == 'D' {
			cigar.GapRegions++
		}
	}

	return cigar
}

// add extends the last record if it has the same operation, or adds a new one.
func (cigar *CIGAR[L]) add(op byte, l L) {
	n := len(cigar.Ops)
	if n > 0 && cigar.Ops[n-1].Op == op {
		r := cigar.Ops[n-1]
		r.N++
		if op != 'M' {
			r.Letters = append(r.Letters, l)
		}
		return
	}

	r := &CIGARRecord[L]{N: 1, Op: op}
	if op != 'M' {
		r.Letters = []L{l}
	}
	cigar.Ops = append(cigar.Ops, r)
}

// EditDistance is the number of mismatches, inserted and deleted letters.
func (cigar *CIGAR[L]) EditDistance() int {
	return int(cigar.Mismatches + cigar.Insertions + cigar.Deletions)
}

// EditDistance returns the edit distance of the alignment pair.
func (pair *AlignmentPair[L]) EditDistance() int {
	return pair.EditScript().EditDistance()
}

// String returns the CIGAR string, where successive mismatches are merged,
// e.g., 10M2X5M2I5M.
func (cigar *CIGAR[L]) String() string {
	buf := poolBytesBuffer.Get().(*bytes.Buffer)
	buf.Reset()

	var n uint32
	for i, op := range cigar.Ops {
		n += op.N
		if i+1 < len(cigar.Ops) && cigar.Ops[i+1].Op == op.Op { // only for X
			continue
		}
		buf.WriteString(strconv.Itoa(int(n)))
		buf.WriteByte(op.Op)
		n = 0
	}

	text := buf.String()
	poolBytesBuffer.Put(buf)
	return text
}

// MismatchString returns a string similar to the MD tag in SAM format:
// numbers for matched letters, reference letters for mismatches,
// "^" followed by query letters for insertions,
// and "-" followed by reference letters for deletions.
//
// E.g., reference AAAAAAAAAAATTTTT--GTTTTT and query AAAAAAAAAAGTTTTTACATTTTT
// gives 10A5^ACG5.
func (cigar *CIGAR[L]) MismatchString() string {
	buf := poolBytesBuffer.Get().(*bytes.Buffer)
	buf.Reset()

	for _, op := range cigar.Ops {
		switch op.Op {
		case 'M':
			buf.WriteString(strconv.Itoa(int(op.N)))
			continue
		case 'I':
			buf.WriteByte('^')
		case 'D':
			buf.WriteByte('-')
		}
		for _, l := range op.Letters {
			buf.WriteString(l.String())
		}
	}

	text := buf.String()
	poolBytesBuffer.Put(buf)
	return text
}

// AlignmentText returns the formated alignment text for reference,
// alignment markers, and query. "|" is for matches.
//
//	AAGT-ACG
//	|| | |||
//	AACTTACG
func (pair *AlignmentPair[L]) AlignmentText() (string, string, string) {
	R := poolBytesBuffer.Get().(*bytes.Buffer)
	A := poolBytesBuffer.Get().(*bytes.Buffer)
	Q := poolBytesBuffer.Get().(*bytes.Buffer)
	R.Reset()
	A.Reset()
	Q.Reset()

	var r, q Token[L]
	for i := range pair.Reference {
		r, q = pair.Reference[i], pair.Query[i]
		R.WriteString(r.String())
		Q.WriteString(q.String())
		if !r.gap && !q.gap && r.letter.Matches(q.letter) {
			A.WriteByte('|')
		} else {
			A.WriteByte(' ')
		}
	}

	textR, textA, textQ := R.String(), A.String(), Q.String()
	poolBytesBuffer.Put(R)
	poolBytesBuffer.Put(A)
	poolBytesBuffer.Put(Q)
	return textR, textA, textQ
}

// object pool of bytes buffers.
var poolBytesBuffer = &sync.Pool{New: func() interface{} {
	buf := make([]byte, 0, 1024)
	return bytes.NewBuffer(buf)
}}

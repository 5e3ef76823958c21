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
	"fmt"
	"strings"
)

// AlignmentPair contains two aligned rows of the same length.
// It should not be modified after creation, trimming methods return new ones.
type AlignmentPair[L Letter[L]] struct {
	Reference []Token[L]
	Query     []Token[L]

	// 0-based indexes of the first and last non-gap tokens, -1 for none.
	refFirst, refLast int
	qFirst, qLast     int
}

// NewAlignmentPair creates an AlignmentPair. It panics if the two rows
// have different lengths.
func NewAlignmentPair[L Letter[L]](reference, query []Token[L]) *AlignmentPair[L] {
	if len(reference) != len(query) {
		panic(fmt.Sprintf("nw: aligned rows of different lengths: %d != %d", len(reference), len(query)))
	}
	pair := &AlignmentPair[L]{Reference: reference, Query: query}
	pair.refFirst, pair.refLast = nonGapRange(reference)
	pair.qFirst, pair.qLast = nonGapRange(query)
	return pair
}

func nonGapRange[L Letter[L]](row []Token[L]) (first int, last int) {
	first, last = -1, -1
	for i, t := range row {
		if !t.gap {
			first = i
			break
		}
	}
	if first < 0 {
		return
	}
	for i := len(row) - 1; i >= first; i-- {
		if !row[i].gap {
			last = i
			break
		}
	}
	return
}

// Len returns the alignment length.
func (pair *AlignmentPair[L]) Len() int { return len(pair.Reference) }

// ReferenceString returns the reference row, gaps are shown as "-".
func (pair *AlignmentPair[L]) ReferenceString() string { return rowString(pair.Reference) }

// QueryString returns the query row, gaps are shown as "-".
func (pair *AlignmentPair[L]) QueryString() string { return rowString(pair.Query) }

func rowString[L Letter[L]](row []Token[L]) string {
	var sb strings.Builder
	for _, t := range row {
		sb.WriteString(t.String())
	}
	return sb.String()
}

func (pair *AlignmentPair[L]) String() string {
	return pair.ReferenceString() + "\n" + pair.QueryString()
}

// --------------------------------------------------------------
// trimming

// sub returns columns in [begin, end). Rows are shared.
func (pair *AlignmentPair[L]) sub(begin, end int) *AlignmentPair[L] {
	if begin < 0 || end <= begin {
		return NewAlignmentPair[L](nil, nil)
	}
	return NewAlignmentPair(pair.Reference[begin:end], pair.Query[begin:end])
}

// TrimStartingGaps removes leading columns where either row is a gap.
func (pair *AlignmentPair[L]) TrimStartingGaps() *AlignmentPair[L] {
	if pair.refFirst < 0 || pair.qFirst < 0 {
		return pair.sub(0, 0)
	}
	return pair.sub(max(pair.refFirst, pair.qFirst), pair.Len())
}

// TrimEndingGaps removes trailing columns where either row is a gap.
func (pair *AlignmentPair[L]) TrimEndingGaps() *AlignmentPair[L] {
	if pair.refLast < 0 || pair.qLast < 0 {
		return pair.sub(0, 0)
	}
	return pair.sub(0, min(pair.refLast, pair.qLast)+1)
}

// TrimGaps removes both leading and trailing columns where either row is a gap.
func (pair *AlignmentPair[L]) TrimGaps() *AlignmentPair[L] {
	if pair.refFirst < 0 || pair.qFirst < 0 {
		return pair.sub(0, 0)
	}
	return pair.sub(max(pair.refFirst, pair.qFirst), min(pair.refLast, pair.qLast)+1)
}

// TrimReferenceGaps removes leading and trailing gaps of the reference row,
// i.e., the alignment is clipped to the region covered by the reference.
func (pair *AlignmentPair[L]) TrimReferenceGaps() *AlignmentPair[L] {
	return pair.sub(pair.refFirst, pair.refLast+1)
}

// TrimQueryGaps removes leading and trailing gaps of the query row.
func (pair *AlignmentPair[L]) TrimQueryGaps() *AlignmentPair[L] {
	return pair.sub(pair.qFirst, pair.qLast+1)
}

// --------------------------------------------------------------
// merging

// ConflictPolicy decides what to do when two aligned letters do not match
// in merging.
type ConflictPolicy int

const (
	// ConflictPanic treats conflicts as a violated invariant. Alignments
	// computed with MergePenalties rarely have mismatches.
	ConflictPanic ConflictPolicy = iota
	ConflictPreferReference
	ConflictPreferQuery
)

func (c ConflictPolicy) String() string {
	switch c {
	case ConflictPanic:
		return "panic"
	case ConflictPreferReference:
		return "reference"
	case ConflictPreferQuery:
		return "query"
	}
	return "unknown"
}

// MergedAlignment merges the two rows with ConflictPanic.
// Only letters not matching each other are conflicts: compatible but
// different letters, e.g., A and N, are resolved to the one with the
// higher score instead of panicking. See Merged.
func (pair *AlignmentPair[L]) MergedAlignment() []L {
	return pair.Merged(ConflictPanic)
}

// Merged merges the two rows into one sequence.
//
// For every column, a letter aligned to a gap is kept. For two letters,
// identical ones are kept once, compatible ones (see Letter.Matches)
// are resolved to the one with the higher score (the reference one for ties),
// and the conflicting ones are handled by the policy.
// Columns of two gaps are skipped.
func (pair *AlignmentPair[L]) Merged(policy ConflictPolicy) []L {
	merged := make([]L, 0, pair.Len())
	var r, q Token[L]
	for i := range pair.Reference {
		r, q = pair.Reference[i], pair.Query[i]
		switch {
		case r.gap && q.gap:
		case r.gap:
			merged = append(merged, q.letter)
		case q.gap:
			merged = append(merged, r.letter)
		case r.letter == q.letter:
			merged = append(merged, r.letter)
		case r.letter.Matches(q.letter):
			if q.letter.Score() > r.letter.Score() {
				merged = append(merged, q.letter)
			} else {
				merged = append(merged, r.letter)
			}
		default:
			switch policy {
			case ConflictPreferReference:
				merged = append(merged, r.letter)
			case ConflictPreferQuery:
				merged = append(merged, q.letter)
			default:
				panic(fmt.Sprintf("nw: conflicting letters in merging at column %d: %s vs %s",
					i+1, r.letter, q.letter))
			}
		}
	}
	return merged
}

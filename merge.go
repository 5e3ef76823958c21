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
	"cmp"
	"slices"
)

// Merger folds multiple sequences into one consensus sequence
// by repeated pairwise alignments.
type Merger[L Letter[L]] struct {
	Penalties *Penalties
	Policy    ConflictPolicy
}

// NewMerger returns a Merger with MergePenalties and ConflictPanic.
func NewMerger[L Letter[L]]() *Merger[L] {
	return &Merger[L]{
		Penalties: &MergePenalties,
		Policy:    ConflictPanic,
	}
}

// Merge merges sequences with MergePenalties and ConflictPanic.
func Merge[L Letter[L]](seqs [][]L) []L {
	return NewMerger[L]().Merge(seqs)
}

// WordScore returns the sum of letter scores of a sequence.
func WordScore[L Letter[L]](seq []L) float64 {
	var s float64
	for _, l := range seq {
		s += l.Score()
	}
	return s
}

// Merge merges sequences into one.
//
// Sequences are sorted by word score in ascending order, with the input
// order kept for ties. The first one is the initial consensus, the others
// are aligned to the consensus one by one, and each merged alignment
// becomes the new consensus. So sequences with higher scores are merged later.
//
// It returns nil for no sequences, and the sequence itself for a single one.
func (m *Merger[L]) Merge(seqs [][]L) []L {
	switch len(seqs) {
	case 0:
		return nil
	case 1:
		return seqs[0]
	}

	scores := make([]float64, len(seqs))
	order := make([]int, len(seqs))
	for i, s := range seqs {
		scores[i] = WordScore(s)
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(scores[a], scores[b])
	})

	algn := NewAligner[L](m.Penalties, nil)
	defer RecycleAligner(algn)

	consensus := seqs[order[0]]
	for _, i := range order[1:] {
		consensus = algn.Align(consensus, seqs[i]).Pair().Merged(m.Policy)
	}
	return consensus
}

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

// Penalties contains the scores of each kind of alignment column.
// They are added to the cumulative score, so penalties should be negative.
//
// Gap scores do not depend on the letters. Terminal gaps, i.e., gaps
// before the first or after the last letter of either sequence,
// score 0 unless the corresponding flag is set.
//
// Infinite values make the order of ties undefined,
// and NaN values may make Align panic.
type Penalties struct {
	Match    float64 // two matched letters
	Mismatch float64 // two letters not matched
	GapOpen  float64 // the first gap of a gap region
	GapExt   float64 // other gaps of a gap region

	PenalizeStartGaps bool
	PenalizeEndGaps   bool
}

// DefaultPenalties treats terminal gaps free.
var DefaultPenalties = Penalties{
	Match:    1,
	Mismatch: -1,
	GapOpen:  -2,
	GapExt:   -1,
}

// MergePenalties is used for merging sequences. The huge mismatch penalty
// nearly excludes mismatches from the alignment,
// so disagreements are presented as gaps.
var MergePenalties = Penalties{
	Match:    1,
	Mismatch: -10000,
	GapOpen:  -1,
	GapExt:   -1,

	PenalizeStartGaps: true,
	PenalizeEndGaps:   true,
}

// MatchScore returns the score of aligning two letters.
func MatchScore[L Letter[L]](p *Penalties, a, b L) float64 {
	if a.Matches(b) {
		return p.Match
	}
	return p.Mismatch
}

// Bounds returns the lowest and highest score of a single alignment column.
// The length-normalized score of an alignment always lies in this range.
func (p *Penalties) Bounds() (lo float64, hi float64) {
	lo = min(p.Match, p.Mismatch, p.GapOpen, p.GapExt)
	hi = max(p.Match, p.Mismatch, p.GapOpen, p.GapExt)
	if !p.PenalizeStartGaps || !p.PenalizeEndGaps {
		lo = min(lo, 0)
		hi = max(hi, 0)
	}
	return
}

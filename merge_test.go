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
	"testing"
)

func TestMerge(t *testing.T) {
	if s := Merge[Base](nil); s != nil {
		t.Errorf("merging nothing should return nil, got %v", s)
	}

	single := Bases("ACGTN")
	if s := Merge([][]Base{single}); string(basesString(s)) != "ACGTN" || &s[0] != &single[0] {
		t.Errorf("merging a single sequence should return itself, got %v", s)
	}

	tests := []struct {
		seqs   []string
		merged string
	}{
		{[]string{"ACGT", "ACGTT"}, "ACGTT"},
		{[]string{"ACGTT", "ACGT"}, "ACGTT"},
		{[]string{"ACGT", "CGTA"}, "ACGTA"},
		{[]string{"ACGT", "ACGT", "ACGT"}, "ACGT"},
		{[]string{"GATTACA", "GATTTACA", "ATTACA"}, "GATTTACA"},
	}
	for i, test := range tests {
		seqs := make([][]Base, len(test.seqs))
		for j, s := range test.seqs {
			seqs[j] = Bases(s)
		}
		merged := string(basesString(Merge(seqs)))
		if merged != test.merged {
			t.Errorf("#%d: unexpected merged sequence: %s, expected: %s", i, merged, test.merged)
		}
	}
}

func TestMergeChars(t *testing.T) {
	merged := Merge([][]Char{Chars("hello"), Chars("hell"), Chars("ello")})
	if string(charsString(merged)) != "hello" {
		t.Errorf("unexpected merged sequence: %s", string(charsString(merged)))
	}
}

func charsString(s []Char) []rune {
	r := make([]rune, len(s))
	for i, c := range s {
		r[i] = rune(c)
	}
	return r
}

func TestMergerPolicy(t *testing.T) {
	m := NewMerger[Base]()
	m.Penalties = &DefaultPenalties // mismatches are cheap
	m.Policy = ConflictPreferQuery

	merged := string(basesString(m.Merge([][]Base{Bases("ACGT"), Bases("AGGT")})))
	if merged != "AGGT" {
		t.Errorf("unexpected merged sequence: %s", merged)
	}
}

func TestWordScore(t *testing.T) {
	if s := WordScore(Bases("ACGN")); s != 3.25 {
		t.Errorf("unexpected word score: %f", s)
	}
	if s := WordScore(Chars("héllo")); s != 5 {
		t.Errorf("unexpected word score: %f", s)
	}
}

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
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestSequenceMapper(t *testing.T) {
	m := NewSequenceMapper[Base, string](nil)

	if err := m.AddReference(Bases("TGAAGGGAGGATGGGC"), "chr1"); err != nil {
		t.Error(err)
		return
	}

	keys := m.QueryBestCandidates(Bases("TGAAGGGAGGATGGGC"), 1)
	if !slices.Equal(keys, []string{"chr1"}) {
		t.Errorf("unexpected candidates: %v", keys)
	}

	keys = m.QueryBestCandidates(Bases("CCCTTT"), 1)
	if len(keys) != 0 {
		t.Errorf("unexpected candidates: %v", keys)
	}

	// containing an unseen letter
	keys = m.QueryBestCandidates(Bases("NNNGGATG"), 1)
	if !slices.Equal(keys, []string{"chr1"}) {
		t.Errorf("unexpected candidates: %v", keys)
	}

	// shorter than the slice
	keys = m.QueryBestCandidates(Bases("TG"), 1)
	if len(keys) != 0 {
		t.Errorf("unexpected candidates: %v", keys)
	}
}

func TestSequenceMapperTooShort(t *testing.T) {
	m := NewSequenceMapper[Base, string](nil)

	err := m.AddReference(Bases("AC"), "short")
	if !errors.Is(err, ErrSequenceTooShort) {
		t.Errorf("expected ErrSequenceTooShort, got %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("unexpected number of references: %d", m.Len())
	}

	m = NewSequenceMapper[Base, string](&MapperOptions{SliceSize: 5})
	if err = m.AddReference(Bases("ACGT"), "short"); !errors.Is(err, ErrSequenceTooShort) {
		t.Errorf("expected ErrSequenceTooShort, got %v", err)
	}
	if err = m.AddReference(Bases("ACGTA"), "ok"); err != nil {
		t.Error(err)
	}
}

func TestSequenceMapperRanking(t *testing.T) {
	m := NewSequenceMapper[Base, string](nil)
	refs := []struct {
		key, seq string
	}{
		{"r1", "ACGTACGT"}, // ACG CGT GTA TAC
		{"r2", "ACGTTTTT"}, // ACG CGT
		{"r3", "GGGGCCCC"},
		{"r4", "ACGTTTTA"}, // ACG CGT
	}
	for _, r := range refs {
		if err := m.AddReference(Bases(r.seq), r.key); err != nil {
			t.Error(err)
			return
		}
	}

	query := Bases("ACGTAC")
	tests := []struct {
		limit int
		keys  []string
	}{
		{1, []string{"r1"}},
		{2, []string{"r1", "r2", "r4"}}, // ties are kept
		{3, []string{"r1", "r2", "r4"}},
		{10, []string{"r1", "r2", "r4"}},
		{0, []string{"r1", "r2", "r4"}},
	}
	for _, test := range tests {
		keys := m.QueryBestCandidates(query, test.limit)
		if !slices.Equal(keys, test.keys) {
			t.Errorf("limit %d: unexpected candidates: %v, expected: %v", test.limit, keys, test.keys)
		}
	}

	// removing
	if !m.RemoveReference("r1") {
		t.Errorf("failed to remove r1")
	}
	if m.RemoveReference("r1") {
		t.Errorf("r1 should have been removed")
	}
	if keys := m.QueryBestCandidates(query, 1); !slices.Equal(keys, []string{"r2", "r4"}) {
		t.Errorf("unexpected candidates: %v", keys)
	}

	// replacing
	if err := m.AddReference(Bases("GTACGTAC"), "r2"); err != nil {
		t.Error(err)
	}
	if keys := m.QueryBestCandidates(query, 1); !slices.Equal(keys, []string{"r2"}) {
		t.Errorf("unexpected candidates: %v", keys)
	}
	if keys := m.Keys(); !slices.Equal(keys, []string{"r3", "r4", "r2"}) {
		t.Errorf("unexpected keys: %v", keys)
	}
	if m.Len() != 3 {
		t.Errorf("unexpected number of references: %d", m.Len())
	}

	// batch
	queries := [][]Base{query, Bases("CCCC"), Bases("TTTTT")}
	results := m.QueryBestCandidatesBatch(queries, 1)
	for i, q := range queries {
		if keys := m.QueryBestCandidates(q, 1); !slices.Equal(keys, results[i]) {
			t.Errorf("#%d: different results of batch query: %v, %v", i, results[i], keys)
		}
	}
}

func TestSequenceMapperSpacing(t *testing.T) {
	m := NewSequenceMapper[Char, int](&MapperOptions{SliceSize: 2, Spacing: 2, QuerySpacing: 1})

	// slices: ab cd ef
	if err := m.AddReference(Chars("abcdef"), 1); err != nil {
		t.Error(err)
	}
	// slices: bc de fx
	if err := m.AddReference(Chars("bcdefx"), 2); err != nil {
		t.Error(err)
	}

	// query slices: bc cd de
	keys := m.QueryBestCandidates(Chars("bcde"), 1)
	if !slices.Equal(keys, []int{2}) {
		t.Errorf("unexpected candidates: %v", keys)
	}

	// repeated slices in the query add multiple hits: cd cd
	keys = m.QueryBestCandidates(Chars("cdcd"), 0)
	if !slices.Equal(keys, []int{1}) {
		t.Errorf("unexpected candidates: %v", keys)
	}
}

func TestSequenceMapperConcurrency(t *testing.T) {
	m := NewSequenceMapper[Base, string](nil)
	r := []Base{}
	for i := 0; i < 8; i++ {
		r = append(r, Bases("ACGTTGCA")...)
	}
	if err := m.AddReference(r, "stable"); err != nil {
		t.Error(err)
		return
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				key := fmt.Sprintf("w%d-%d", w, i)
				if err := m.AddReference(Bases("ACGTTGCAAC"), key); err != nil {
					t.Error(err)
					return
				}
				if i%2 == 0 {
					m.RemoveReference(key)
				}
			}
		}(w)
	}
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				keys := m.QueryBestCandidates(Bases("ACGTTGCA"), 1)
				if len(keys) == 0 {
					t.Errorf("no candidates found")
					return
				}
			}
		}()
	}
	wg.Wait()

	if m.Len() != 1+4*25 {
		t.Errorf("unexpected number of references: %d", m.Len())
	}
}

func TestSequenceMapperChurn(t *testing.T) {
	m := NewSequenceMapper[Base, string](nil)

	for i := 0; i < 10000; i++ {
		if err := m.AddReference(Bases("ACGTTGCA"), "k"); err != nil {
			t.Error(err)
			return
		}
	}
	if m.Len() != 1 || len(m.keys) != 1 {
		t.Errorf("unexpected number of references/slots: %d/%d", m.Len(), len(m.keys))
	}

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("tmp%d", i)
		if err := m.AddReference(Bases("GGGCCCAT"), key); err != nil {
			t.Error(err)
			return
		}
		m.RemoveReference(key)
	}
	if len(m.keys) != 2 {
		t.Errorf("unexpected number of slots: %d", len(m.keys))
	}

	// removed references leave nothing in the index
	if keys := m.QueryBestCandidates(Bases("GGGCCCAT"), 0); len(keys) != 0 {
		t.Errorf("unexpected candidates: %v", keys)
	}
	if keys := m.QueryBestCandidates(Bases("ACGTTGCA"), 0); !slices.Equal(keys, []string{"k"}) {
		t.Errorf("unexpected candidates: %v", keys)
	}

	// a reused slot ranks by the order of addition
	if err := m.AddReference(Bases("ACGTAAAA"), "late"); err != nil {
		t.Error(err)
	}
	if keys := m.QueryBestCandidates(Bases("ACGT"), 0); !slices.Equal(keys, []string{"k", "late"}) {
		t.Errorf("unexpected candidates: %v", keys)
	}
	if keys := m.Keys(); !slices.Equal(keys, []string{"k", "late"}) {
		t.Errorf("unexpected keys: %v", keys)
	}
}

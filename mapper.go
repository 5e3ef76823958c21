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
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/exascience/pargo/parallel"
	psync "github.com/exascience/pargo/sync"
	"github.com/willf/bitset"
	"github.com/zeebo/wyhash"
)

// ErrSequenceTooShort means a reference is shorter than the comparison slice.
var ErrSequenceTooShort = errors.New("nw: sequence shorter than the comparison slice")

// MapperOptions contains options of SequenceMapper.
type MapperOptions struct {
	SliceSize    int // length of slices (k-mers) for comparison
	Spacing      int // step of sliding windows on references
	QuerySpacing int // step of sliding windows on queries
}

// DefaultMapperOptions is the default MapperOptions.
var DefaultMapperOptions = MapperOptions{
	SliceSize:    3,
	Spacing:      1,
	QuerySpacing: 1,
}

// SequenceMapper indexes reference sequences by overlapping slices
// of letters, for quickly shortlisting the references sharing
// the most slices with a query.
//
// It's safe for concurrent use. Adding and removing references are
// serialized, while queries do not wait for them. The set of references
// sharing a slice is replaced as a whole when updated, so a query sees
// either the old or the new set.
//
// Slots of removed references are reused by later ones, so the index
// does not grow with repeated adding and removing.
type SequenceMapper[L Letter[L], K comparable] struct {
	opt MapperOptions

	mu sync.Mutex // for writers

	// sliceKey -> *bitset.BitSet of reference ordinals.
	// A stored bitset is never modified.
	index *psync.Map
	// letterKey[L] -> uint32, letters are encoded in slice keys.
	alphabet *psync.Map
	nLetters uint32

	refsMu sync.RWMutex
	refs   map[K]*mappedRef
	keys   []mappedKey[K] // ordinal -> key
	free   []uint         // ordinals of removed references, reused first
	nAdded uint64
}

type mappedRef struct {
	ordinal uint
	slices  []sliceKey
}

type mappedKey[K comparable] struct {
	key   K
	added uint64 // order of addition
	alive bool
}

// sliceKey is the encoded letter IDs of a slice.
type sliceKey string

func (s sliceKey) Hash() uint64 {
	return wyhash.HashString(string(s), 1)
}

type letterKey[L Letter[L]] struct {
	l L
}

func (k letterKey[L]) Hash() uint64 {
	return k.l.Hash()
}

// NewSequenceMapper creates a SequenceMapper.
// Default values are used for a nil or non-positive options.
func NewSequenceMapper[L Letter[L], K comparable](opt *MapperOptions) *SequenceMapper[L, K] {
	o := DefaultMapperOptions
	if opt != nil {
		if opt.SliceSize > 0 {
			o.SliceSize = opt.SliceSize
		}
		if opt.Spacing > 0 {
			o.Spacing = opt.Spacing
		}
		if opt.QuerySpacing > 0 {
			o.QuerySpacing = opt.QuerySpacing
		}
	}
	return &SequenceMapper[L, K]{
		opt:      o,
		index:    psync.NewMap(0),
		alphabet: psync.NewMap(0),
		refs:     make(map[K]*mappedRef, 128),
	}
}

// Options returns the options in use.
func (m *SequenceMapper[L, K]) Options() MapperOptions { return m.opt }

// encode encodes a slice into a key. New letters are added to the alphabet
// if add is true, otherwise false is returned for any unseen letter.
func (m *SequenceMapper[L, K]) encode(buf []byte, s []L, add bool) ([]byte, bool) {
	buf = buf[:0]
	var id uint32
	for _, l := range s {
		v, ok := m.alphabet.Load(letterKey[L]{l})
		if ok {
			id = v.(uint32)
		} else {
			if !add {
				return buf, false
			}
			m.nLetters++ // only writers get here
			v, _ = m.alphabet.LoadOrStore(letterKey[L]{l}, m.nLetters)
			id = v.(uint32)
		}
		buf = binary.LittleEndian.AppendUint32(buf, id)
	}
	return buf, true
}

// AddReference adds a reference sequence with an address key.
// An existing reference of the same key is replaced.
func (m *SequenceMapper[L, K]) AddReference(seq []L, key K) error {
	k := m.opt.SliceSize
	if len(seq) < k {
		return fmt.Errorf("%w: %d < %d", ErrSequenceTooShort, len(seq), k)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeReference(key)

	m.refsMu.Lock()
	m.nAdded++
	mk := mappedKey[K]{key: key, added: m.nAdded, alive: true}
	var ordinal uint
	if n := len(m.free); n > 0 {
		ordinal = m.free[n-1]
		m.free = m.free[:n-1]
		m.keys[ordinal] = mk
	} else {
		ordinal = uint(len(m.keys))
		m.keys = append(m.keys, mk)
	}
	ref := &mappedRef{ordinal: ordinal}
	m.refs[key] = ref
	m.refsMu.Unlock()

	seen := make(map[sliceKey]struct{}, len(seq))
	buf := make([]byte, 0, k<<2)
	var sk sliceKey
	addOrdinal := func(v interface{}, ok bool) (interface{}, bool) {
		var set *bitset.BitSet
		if ok {
			set = v.(*bitset.BitSet).Clone()
		} else {
			set = bitset.New(ordinal + 1)
		}
		return set.Set(ordinal), true
	}
	for i := 0; i+k <= len(seq); i += m.opt.Spacing {
		buf, _ = m.encode(buf, seq[i:i+k], true)
		sk = sliceKey(buf)
		if _, ok := seen[sk]; ok {
			continue
		}
		seen[sk] = struct{}{}
		ref.slices = append(ref.slices, sk)

		m.index.Modify(sk, addOrdinal)
	}

	return nil
}

// RemoveReference removes a reference, and returns false if it does not exist.
func (m *SequenceMapper[L, K]) RemoveReference(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.removeReference(key)
}

// removeReference should be called with mu held.
func (m *SequenceMapper[L, K]) removeReference(key K) bool {
	ref, ok := m.refs[key]
	if !ok {
		return false
	}

	clearOrdinal := func(v interface{}, ok bool) (interface{}, bool) {
		if !ok {
			return nil, false
		}
		set := v.(*bitset.BitSet).Clone().Clear(ref.ordinal)
		return set, set.Any()
	}
	for _, sk := range ref.slices {
		m.index.Modify(sk, clearOrdinal)
	}

	m.refsMu.Lock()
	delete(m.refs, key)
	m.keys[ref.ordinal] = mappedKey[K]{}
	m.free = append(m.free, ref.ordinal)
	m.refsMu.Unlock()

	return true
}

// Len returns the number of references.
func (m *SequenceMapper[L, K]) Len() int {
	m.refsMu.RLock()
	defer m.refsMu.RUnlock()
	return len(m.refs)
}

// Keys returns keys of all references in the order of addition.
func (m *SequenceMapper[L, K]) Keys() []K {
	m.refsMu.RLock()
	defer m.refsMu.RUnlock()

	alive := make([]mappedKey[K], 0, len(m.refs))
	for _, k := range m.keys {
		if k.alive {
			alive = append(alive, k)
		}
	}
	slices.SortFunc(alive, func(a, b mappedKey[K]) int {
		return cmp.Compare(a.added, b.added)
	})

	keys := make([]K, len(alive))
	for i, k := range alive {
		keys[i] = k.key
	}
	return keys
}

type mapperHit struct {
	ordinal uint
	added   uint64
	n       int
}

// QueryBestCandidates returns keys of references sharing the most slices
// with the query. Every slice of the query adds one hit to each reference
// containing it.
//
// References are ranked by hits in descending order, and by the order of
// addition for ties. At most limit keys are returned, except that
// references with the same hits as the last one are also included.
// All candidates are returned for a non-positive limit.
func (m *SequenceMapper[L, K]) QueryBestCandidates(query []L, limit int) []K {
	k := m.opt.SliceSize
	if len(query) < k {
		return nil
	}

	tally := make(map[uint]int, 64)
	buf := make([]byte, 0, k<<2)
	var ok bool
	var v interface{}
	var set *bitset.BitSet
	var o uint
	for i := 0; i+k <= len(query); i += m.opt.QuerySpacing {
		buf, ok = m.encode(buf, query[i:i+k], false)
		if !ok {
			continue
		}
		v, ok = m.index.Load(sliceKey(buf))
		if !ok {
			continue
		}
		set = v.(*bitset.BitSet)
		for o, ok = set.NextSet(0); ok; o, ok = set.NextSet(o + 1) {
			tally[o]++
		}
	}
	if len(tally) == 0 {
		return nil
	}

	m.refsMu.RLock()
	defer m.refsMu.RUnlock()

	hits := make([]mapperHit, 0, len(tally))
	for o, n := range tally {
		if o >= uint(len(m.keys)) || !m.keys[o].alive { // removed in the meantime
			continue
		}
		hits = append(hits, mapperHit{ordinal: o, added: m.keys[o].added, n: n})
	}
	slices.SortFunc(hits, func(a, b mapperHit) int {
		if a.n != b.n {
			return b.n - a.n
		}
		return cmp.Compare(a.added, b.added)
	})

	keys := make([]K, 0, min(len(hits), max(limit, 1)))
	var last int
	for _, h := range hits {
		if limit > 0 && len(keys) >= limit && h.n < last {
			break
		}
		keys = append(keys, m.keys[h.ordinal].key)
		last = h.n
	}
	return keys
}

// QueryBestCandidatesBatch queries multiple sequences in parallel.
func (m *SequenceMapper[L, K]) QueryBestCandidatesBatch(queries [][]L, limit int) [][]K {
	results := make([][]K, len(queries))
	if len(queries) == 0 {
		return results
	}
	parallel.Range(0, len(queries), 0, func(low, high int) {
		for i := low; i < high; i++ {
			results[i] = m.QueryBestCandidates(queries[i], limit)
		}
	})
	return results
}

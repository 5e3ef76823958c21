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
	"math/bits"
)

// Letter is the constraint of symbols to align.
//
// Score returns the importance weight of a letter, it's only used for
// ordering sequences in merging. Matches reports whether two letters are
// compatible, which is not necessarily identity, e.g., the IUPAC code N
// matches any base. Hash is used for indexing slices of letters.
type Letter[L any] interface {
	comparable
	fmt.Stringer

	Score() float64
	Matches(other L) bool
	Hash() uint64
}

// Token is one position of an aligned row, a letter or a gap.
// The zero value is not a gap, use Gap() to create one.
type Token[L Letter[L]] struct {
	letter L
	gap    bool
}

// Gap returns the gap token, it has no letter and a score of 0.
func Gap[L Letter[L]]() Token[L] {
	return Token[L]{gap: true}
}

// GapLetter is implemented by letters having a literal gap symbol,
// e.g., '-' of Base. Such a letter in a sequence is output as a gap.
type GapLetter interface {
	IsGap() bool
}

// NewToken wraps a letter, a gap symbol (see GapLetter) becomes a gap.
func NewToken[L Letter[L]](l L) Token[L] {
	if g, ok := any(l).(GapLetter); ok && g.IsGap() {
		return Token[L]{gap: true}
	}
	return Token[L]{letter: l}
}

// Tokens wraps a sequence of letters.
func Tokens[L Letter[L]](s []L) []Token[L] {
	tokens := make([]Token[L], len(s))
	for i, l := range s {
		tokens[i] = NewToken(l)
	}
	return tokens
}

// IsGap tells if it's a gap.
func (t Token[L]) IsGap() bool { return t.gap }

// Letter returns the letter, or the zero value of L for a gap.
func (t Token[L]) Letter() L { return t.letter }

// Score returns the score of the letter, 0 for a gap.
func (t Token[L]) Score() float64 {
	if t.gap {
		return 0
	}
	return t.letter.Score()
}

func (t Token[L]) String() string {
	if t.gap {
		return "-"
	}
	return t.letter.String()
}

// --------------------------------------------------------------

// ErrInvalidLetter means a symbol could not be converted to a letter.
var ErrInvalidLetter = errors.New("nw: invalid letter")

// Base is an IUPAC nucleotide code.
// Two bases match if they share at least one nucleotide, and U is treated as T.
type Base byte

// masks of A, C, G, T, and bitwise ORs of them for ambiguity codes.
var iupacMask [256]uint8

func init() {
	codes := map[byte]uint8{
		'A': 1, 'C': 2, 'G': 4, 'T': 8, 'U': 8,
		'R': 1 | 4, // A/G
		'Y': 2 | 8, // C/T
		'S': 2 | 4, // C/G
		'W': 1 | 8, // A/T
		'K': 4 | 8, // G/T
		'M': 1 | 2, // A/C
		'B': 2 | 4 | 8,
		'D': 1 | 4 | 8,
		'H': 1 | 2 | 8,
		'V': 1 | 2 | 4,
		'N': 1 | 2 | 4 | 8,
	}
	for c, m := range codes {
		iupacMask[c] = m
		iupacMask[c+'a'-'A'] = m
	}
}

// Score is the reciprocal of the number of nucleotides a code represents,
// so A, C, G, T score 1 and N scores 0.25. Invalid codes score 0.
func (b Base) Score() float64 {
	n := bits.OnesCount8(iupacMask[b])
	if n == 0 {
		return 0
	}
	return 1 / float64(n)
}

// Matches tells if two codes share a nucleotide.
func (b Base) Matches(other Base) bool {
	if b == other {
		return true
	}
	return iupacMask[b]&iupacMask[other] != 0
}

// Hash returns the hash value.
func (b Base) Hash() uint64 { return uint64(b) }

// IsGap tells if it's the gap symbol '-' or '.'.
// A gap symbol matches only itself and scores 0.
func (b Base) IsGap() bool { return b == '-' || b == '.' }

func (b Base) String() string { return string(rune(b)) }

// Bases converts a string into bases without checking.
func Bases(s string) []Base {
	bs := make([]Base, len(s))
	for i := 0; i < len(s); i++ {
		bs[i] = Base(s[i])
	}
	return bs
}

// ParseBases converts a string into bases, all symbols should be IUPAC codes
// or gap symbols.
func ParseBases(s string) ([]Base, error) {
	bs := make([]Base, len(s))
	for i := 0; i < len(s); i++ {
		if iupacMask[s[i]] == 0 && !Base(s[i]).IsGap() {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidLetter, s[i], i+1)
		}
		bs[i] = Base(s[i])
	}
	return bs, nil
}

// BaseTokens converts an aligned string into tokens, where '-' is a gap.
func BaseTokens(s string) []Token[Base] {
	tokens := make([]Token[Base], len(s))
	for i := 0; i < len(s); i++ {
		tokens[i] = NewToken(Base(s[i]))
	}
	return tokens
}

// Char is a generic letter which only matches itself.
type Char rune

// Score is always 1.
func (c Char) Score() float64 { return 1 }

// Matches tells if the two are identical.
func (c Char) Matches(other Char) bool { return c == other }

// Hash returns the hash value.
func (c Char) Hash() uint64 { return uint64(c) }

// IsGap tells if it's '-'.
func (c Char) IsGap() bool { return c == '-' }

func (c Char) String() string { return string(c) }

// Chars converts a string into letters.
func Chars(s string) []Char {
	cs := make([]Char, 0, len(s))
	for _, r := range s {
		cs = append(cs, Char(r))
	}
	return cs
}

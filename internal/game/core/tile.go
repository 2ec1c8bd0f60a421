package core

import (
	"fmt"
	"strings"
)

// Tile is one symbol of the alphabet occupying a grid cell. The zero value is
// the empty cell.
type Tile byte

// Empty marks a cell with no tile.
const Empty Tile = 0

// EmptySymbol is how an empty cell is rendered in text form.
const EmptySymbol = '.'

// reservedSymbols cannot be used as tiles because the text renderings and
// state encoders use them as separators or sentinels.
const reservedSymbols = ".#|/,;:=?- \t\n"

func (t Tile) IsEmpty() bool { return t == Empty }

func (t Tile) String() string {
	if t == Empty {
		return string(EmptySymbol)
	}
	return string(rune(t))
}

// Alphabet is the closed set of tiles a game draws from. Order matters: it is
// the order the row generator samples from and the order renderers list.
type Alphabet []Tile

// ParseAlphabet builds an alphabet from single-character symbols such as
// []string{"z", "i", "e", "w", "a"}.
func ParseAlphabet(symbols []string) (Alphabet, error) {
	a := make(Alphabet, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if len(s) != 1 {
			return nil, fmt.Errorf("%w: symbol %q must be a single ASCII character", ErrInvalidAlphabet, s)
		}
		a = append(a, Tile(s[0]))
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the alphabet has at least two distinct printable symbols,
// none of them reserved.
func (a Alphabet) Validate() error {
	if len(a) < 2 {
		return fmt.Errorf("%w: need at least 2 symbols, got %d", ErrInvalidAlphabet, len(a))
	}
	seen := make(map[Tile]bool, len(a))
	for _, t := range a {
		if t < '!' || t > '~' {
			return fmt.Errorf("%w: symbol %d is not printable ASCII", ErrInvalidAlphabet, t)
		}
		if strings.IndexByte(reservedSymbols, byte(t)) >= 0 {
			return fmt.Errorf("%w: symbol %q is reserved", ErrInvalidAlphabet, t.String())
		}
		if seen[t] {
			return fmt.Errorf("%w: duplicate symbol %q", ErrInvalidAlphabet, t.String())
		}
		seen[t] = true
	}
	return nil
}

// Without returns a copy of the alphabet with t removed.
func (a Alphabet) Without(t Tile) Alphabet {
	out := make(Alphabet, 0, len(a))
	for _, x := range a {
		if x != t {
			out = append(out, x)
		}
	}
	return out
}

// Contains reports whether t is part of the alphabet.
func (a Alphabet) Contains(t Tile) bool {
	for _, x := range a {
		if x == t {
			return true
		}
	}
	return false
}

func (a Alphabet) Strings() []string {
	out := make([]string, len(a))
	for i, t := range a {
		out[i] = t.String()
	}
	return out
}

package domain

import "errors"

// ErrDoubleInitialization means the supply was seeded twice within one game.
// It indicates a round-counting bug upstream and must not be ignored.
var ErrDoubleInitialization = errors.New("tile supply already initialized")

// TileSupply tracks the tiles available for manual distribution and the discard
// pile that refills it. It is independent of the rules engine's own bag.
type TileSupply struct {
	counts  [colorCount]int
	discard []TileColor
}

// NewTileSupply returns an empty supply.
func NewTileSupply() *TileSupply {
	return &TileSupply{}
}

// InitializeFromExternalState seeds the supply from the engine's pre-distribution
// factories and bag. It is valid only while the supply is empty.
func (s *TileSupply) InitializeFromExternalState(factoryTiles [][]TileColor, bagTiles []TileColor) error {
	if s.TotalAvailable() > 0 {
		return ErrDoubleInitialization
	}
	for _, tiles := range factoryTiles {
		s.add(tiles)
	}
	s.add(bagTiles)
	return nil
}

func (s *TileSupply) add(tiles []TileColor) {
	for _, c := range tiles {
		if c.Valid() {
			s.counts[c]++
		}
	}
}

// Take removes one tile of the given color. It returns false, leaving the
// supply unchanged, when none is available.
func (s *TileSupply) Take(c TileColor) bool {
	if !c.Valid() || s.counts[c] <= 0 {
		return false
	}
	s.counts[c]--
	return true
}

// Give returns one tile of the given color to the supply.
func (s *TileSupply) Give(c TileColor) {
	if c.Valid() {
		s.counts[c]++
	}
}

// RefillFromDiscardIfNeeded moves the whole discard pile into the supply when the
// supply alone cannot cover needed tiles. It reports whether a refill happened.
func (s *TileSupply) RefillFromDiscardIfNeeded(needed int) bool {
	if s.TotalAvailable() >= needed || len(s.discard) == 0 {
		return false
	}
	s.add(s.discard)
	s.discard = s.discard[:0]
	return true
}

// RecordDiscard appends tiles removed from play at round end. They are not
// available to Take until a refill.
func (s *TileSupply) RecordDiscard(colors ...TileColor) {
	for _, c := range colors {
		if c.Valid() {
			s.discard = append(s.discard, c)
		}
	}
}

// TotalAvailable returns the number of tiles that can be taken.
func (s *TileSupply) TotalAvailable() int {
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// Count returns the available tiles of one color.
func (s *TileSupply) Count(c TileColor) int {
	if !c.Valid() {
		return 0
	}
	return s.counts[c]
}

// Counts returns a copy of the per-color availability, zero counts included.
func (s *TileSupply) Counts() map[TileColor]int {
	out := make(map[TileColor]int, len(Colors))
	for _, c := range Colors {
		out[c] = s.counts[c]
	}
	return out
}

// Discard returns a copy of the discard pile in arrival order.
func (s *TileSupply) Discard() []TileColor {
	return append([]TileColor(nil), s.discard...)
}

// DiscardLen returns the size of the discard pile.
func (s *TileSupply) DiscardLen() int {
	return len(s.discard)
}

// Flatten expands the counts into a bag, grouped by color in canonical order.
func (s *TileSupply) Flatten() []TileColor {
	out := make([]TileColor, 0, s.TotalAvailable())
	for _, c := range Colors {
		for i := 0; i < s.counts[c]; i++ {
			out = append(out, c)
		}
	}
	return out
}

// Reset empties both the supply and the discard pile.
func (s *TileSupply) Reset() {
	s.counts = [colorCount]int{}
	s.discard = nil
}

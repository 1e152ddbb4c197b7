package domain

import (
	"errors"
	"reflect"
	"testing"
)

func repeat(c TileColor, n int) []TileColor {
	out := make([]TileColor, n)
	for i := range out {
		out[i] = c
	}
	return out
}

func TestInitializeFromExternalState(t *testing.T) {
	s := NewTileSupply()
	factories := [][]TileColor{
		{},                        // centre
		{Blue, Blue, Red, NoTile}, // sentinel ignored
		{Yellow, Black, White, White},
	}
	bag := []TileColor{Red, Red, Blue}

	if err := s.InitializeFromExternalState(factories, bag); err != nil {
		t.Fatalf("InitializeFromExternalState() error = %v", err)
	}

	want := map[TileColor]int{Blue: 3, Yellow: 1, Red: 3, Black: 1, White: 2}
	if got := s.Counts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Counts() = %v, want %v", got, want)
	}
	if s.TotalAvailable() != 10 {
		t.Fatalf("TotalAvailable() = %d, want 10", s.TotalAvailable())
	}
}

func TestInitializeTwiceFails(t *testing.T) {
	s := NewTileSupply()
	if err := s.InitializeFromExternalState(nil, []TileColor{Blue, Red}); err != nil {
		t.Fatalf("first init error = %v", err)
	}

	err := s.InitializeFromExternalState(nil, []TileColor{White, White, White})
	if !errors.Is(err, ErrDoubleInitialization) {
		t.Fatalf("second init error = %v, want ErrDoubleInitialization", err)
	}
	if s.TotalAvailable() != 2 || s.Count(White) != 0 {
		t.Fatalf("second init mutated supply: %v", s.Counts())
	}
}

func TestInitializeAfterEmptyInitIsAllowed(t *testing.T) {
	s := NewTileSupply()
	if err := s.InitializeFromExternalState(nil, nil); err != nil {
		t.Fatalf("empty init error = %v", err)
	}
	if err := s.InitializeFromExternalState(nil, []TileColor{Blue}); err != nil {
		t.Fatalf("init over empty supply error = %v", err)
	}
}

func TestTakeAndGive(t *testing.T) {
	s := NewTileSupply()
	s.Give(Red)

	if !s.Take(Red) {
		t.Fatalf("Take(Red) = false with one red available")
	}
	before := s.Counts()
	if s.Take(Red) {
		t.Fatalf("Take(Red) = true with no red available")
	}
	if !reflect.DeepEqual(s.Counts(), before) {
		t.Fatalf("rejected Take changed counts: %v -> %v", before, s.Counts())
	}
	if s.Take(NoTile) {
		t.Fatalf("Take(NoTile) = true")
	}

	s.Give(NoTile)
	if s.TotalAvailable() != 0 {
		t.Fatalf("Give(NoTile) added a tile")
	}
}

func TestRefillFromDiscardIfNeeded(t *testing.T) {
	tests := []struct {
		name        string
		supply      []TileColor
		discard     []TileColor
		needed      int
		wantRefill  bool
		wantTotal   int
		wantDiscard int
	}{
		{
			name:        "short supply pulls whole discard",
			supply:      []TileColor{Blue, Red, Red},
			discard:     append(repeat(White, 10), repeat(Black, 5)...),
			needed:      20,
			wantRefill:  true,
			wantTotal:   18,
			wantDiscard: 0,
		},
		{
			name:        "enough supply leaves discard alone",
			supply:      repeat(Yellow, 20),
			discard:     repeat(Blue, 4),
			needed:      20,
			wantRefill:  false,
			wantTotal:   20,
			wantDiscard: 4,
		},
		{
			name:        "empty discard is a no-op",
			supply:      repeat(Yellow, 2),
			needed:      20,
			wantRefill:  false,
			wantTotal:   2,
			wantDiscard: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTileSupply()
			for _, c := range tt.supply {
				s.Give(c)
			}
			s.RecordDiscard(tt.discard...)

			if got := s.RefillFromDiscardIfNeeded(tt.needed); got != tt.wantRefill {
				t.Fatalf("RefillFromDiscardIfNeeded() = %t, want %t", got, tt.wantRefill)
			}
			if s.TotalAvailable() != tt.wantTotal {
				t.Fatalf("TotalAvailable() = %d, want %d", s.TotalAvailable(), tt.wantTotal)
			}
			if s.DiscardLen() != tt.wantDiscard {
				t.Fatalf("DiscardLen() = %d, want %d", s.DiscardLen(), tt.wantDiscard)
			}
		})
	}
}

func TestRecordDiscardIsNotTakeable(t *testing.T) {
	s := NewTileSupply()
	s.RecordDiscard(Blue, NoTile, Blue)

	if s.DiscardLen() != 2 {
		t.Fatalf("DiscardLen() = %d, want 2", s.DiscardLen())
	}
	if s.Take(Blue) {
		t.Fatalf("discarded tile was takeable before refill")
	}
	if got := s.Discard(); !reflect.DeepEqual(got, []TileColor{Blue, Blue}) {
		t.Fatalf("Discard() = %v", got)
	}
}

func TestFlattenGroupsByColor(t *testing.T) {
	s := NewTileSupply()
	for _, c := range []TileColor{White, Blue, Red, Blue} {
		s.Give(c)
	}
	want := []TileColor{Blue, Blue, Red, White}
	if got := s.Flatten(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Flatten() = %v, want %v", got, want)
	}
}

func TestReset(t *testing.T) {
	s := NewTileSupply()
	s.Give(Blue)
	s.RecordDiscard(Red)
	s.Reset()

	if s.TotalAvailable() != 0 || s.DiscardLen() != 0 {
		t.Fatalf("Reset() left total=%d discard=%d", s.TotalAvailable(), s.DiscardLen())
	}
	if err := s.InitializeFromExternalState(nil, []TileColor{Red}); err != nil {
		t.Fatalf("init after reset error = %v", err)
	}
}

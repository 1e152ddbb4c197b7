package domain

import (
	"reflect"
	"testing"
)

func newSession(n int) *PlacementSession {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	p := NewPlacementSession()
	p.RegisterFactories(ids)
	return p
}

func TestRegisterFactories(t *testing.T) {
	p := NewPlacementSession()
	p.RegisterFactories([]int{0, 1, 2, 3, 2, -1})

	if p.NumFactories() != 3 {
		t.Fatalf("NumFactories() = %d, want 3", p.NumFactories())
	}
	if p.HasFactory(CentreFactoryID) {
		t.Fatalf("centre must never be registered")
	}
	if p.Capacity() != 12 {
		t.Fatalf("Capacity() = %d, want 12", p.Capacity())
	}

	p.Place(1, Blue)
	p.RegisterFactories([]int{1, 2})
	if p.TotalPlaced() != 0 || p.NumFactories() != 2 {
		t.Fatalf("RegisterFactories did not replace prior state")
	}
}

func TestPlaceRejections(t *testing.T) {
	p := newSession(2)
	for i := 0; i < FactoryCapacity; i++ {
		if !p.Place(1, Red) {
			t.Fatalf("Place #%d rejected on non-full factory", i)
		}
	}

	tests := []struct {
		name  string
		id    int
		color TileColor
	}{
		{name: "full factory", id: 1, color: Blue},
		{name: "unknown factory", id: 3, color: Blue},
		{name: "centre", id: CentreFactoryID, color: Blue},
		{name: "no tile", id: 2, color: NoTile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := p.SnapshotConfiguration()
			if p.Place(tt.id, tt.color) {
				t.Fatalf("Place(%d, %v) = true, want false", tt.id, tt.color)
			}
			if !reflect.DeepEqual(p.SnapshotConfiguration(), before) {
				t.Fatalf("rejected Place mutated the session")
			}
		})
	}
}

func TestCapacityBound(t *testing.T) {
	p := newSession(5)
	for i := 0; i < 40; i++ {
		p.Place(i%5+1, Colors[i%len(Colors)])
		for _, a := range p.SnapshotConfiguration() {
			if len(a.Tiles) > FactoryCapacity {
				t.Fatalf("factory %d holds %d tiles", a.FactoryID, len(a.Tiles))
			}
		}
	}
	if p.TotalPlaced() != 20 {
		t.Fatalf("TotalPlaced() = %d, want 20", p.TotalPlaced())
	}
}

func TestRemoveAtCompacts(t *testing.T) {
	p := newSession(1)
	p.Place(1, Blue)
	p.Place(1, Red)
	p.Place(1, White)

	c, ok := p.RemoveAt(1, 1)
	if !ok || c != Red {
		t.Fatalf("RemoveAt(1, 1) = %v, %t, want red, true", c, ok)
	}
	if got := p.Tiles(1); !reflect.DeepEqual(got, []TileColor{Blue, White}) {
		t.Fatalf("Tiles(1) = %v after removal", got)
	}

	tests := []struct {
		name string
		id   int
		slot int
	}{
		{name: "slot past end", id: 1, slot: 2},
		{name: "negative slot", id: 1, slot: -1},
		{name: "unknown factory", id: 9, slot: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c, ok := p.RemoveAt(tt.id, tt.slot); ok || c != NoTile {
				t.Fatalf("RemoveAt(%d, %d) = %v, %t", tt.id, tt.slot, c, ok)
			}
		})
	}
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name      string
		factories int
		available int
		placed    int
		want      bool
	}{
		{name: "full supply needs full capacity", factories: 5, available: 100, placed: 19, want: false},
		{name: "full supply complete", factories: 5, available: 100, placed: 20, want: true},
		{name: "short supply complete at supply", factories: 5, available: 18, placed: 18, want: true},
		{name: "short supply not yet", factories: 5, available: 18, placed: 17, want: false},
		{name: "empty supply is trivially complete", factories: 5, available: 0, placed: 0, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newSession(tt.factories)
			for i := 0; i < tt.placed; i++ {
				p.Place(i/FactoryCapacity+1, Blue)
			}
			if got := p.IsComplete(tt.available); got != tt.want {
				t.Fatalf("IsComplete(%d) with %d placed = %t, want %t", tt.available, tt.placed, got, tt.want)
			}
		})
	}
}

func TestSnapshotIsOrderedAndDetached(t *testing.T) {
	p := NewPlacementSession()
	p.RegisterFactories([]int{3, 1, 2})
	p.Place(3, Black)
	p.Place(1, Yellow)

	snap := p.SnapshotConfiguration()
	for i, a := range snap {
		if a.FactoryID != i+1 {
			t.Fatalf("snapshot[%d].FactoryID = %d, want %d", i, a.FactoryID, i+1)
		}
	}

	snap[0].Tiles[0] = White
	if got := p.Tiles(1); got[0] != Yellow {
		t.Fatalf("snapshot aliases session state")
	}
}

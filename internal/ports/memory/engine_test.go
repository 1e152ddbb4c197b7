package memory

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"tiledraft/internal/domain"
	"tiledraft/internal/ports"
)

var _ ports.RulesEngine = (*Engine)(nil)

func newTestEngine(t *testing.T, players int) *Engine {
	t.Helper()
	e, err := NewEngine(Setup{Players: players}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewEngine(%d) error = %v", players, err)
	}
	return e
}

func countTiles(e *Engine) int {
	total := len(e.Bag())
	for _, f := range e.Factories() {
		total += len(f)
	}
	return total
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		players       int
		wantFactories int
		wantErr       bool
	}{
		{players: 2, wantFactories: 5},
		{players: 3, wantFactories: 7},
		{players: 4, wantFactories: 9},
		{players: 1, wantErr: true},
		{players: 6, wantErr: true},
	}
	for _, tt := range tests {
		e, err := NewEngine(Setup{Players: tt.players}, nil)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedPlayers) {
				t.Fatalf("NewEngine(%d) error = %v, want ErrUnsupportedPlayers", tt.players, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewEngine(%d) error = %v", tt.players, err)
		}
		if e.FactoryCount() != tt.wantFactories {
			t.Fatalf("FactoryCount() = %d, want %d", e.FactoryCount(), tt.wantFactories)
		}
		if len(e.Bag()) != domain.TotalTiles {
			t.Fatalf("bag size = %d, want %d", len(e.Bag()), domain.TotalTiles)
		}
	}
}

func TestNewEngineFactoryOverride(t *testing.T) {
	e, err := NewEngine(Setup{Players: 2, Factories: 3, TilesPerColor: 2}, nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if e.FactoryCount() != 3 || len(e.Bag()) != 10 {
		t.Fatalf("FactoryCount() = %d, bag = %d, want 3 and 10", e.FactoryCount(), len(e.Bag()))
	}

	e.SeedFactories()
	if got := countTiles(e); got != 10 {
		t.Fatalf("tiles after seeding = %d, want 10", got)
	}
}

func TestSeedFactoriesConservesTiles(t *testing.T) {
	e := newTestEngine(t, 2)
	e.SeedFactories()

	factories := e.Factories()
	if len(factories[domain.CentreFactoryID]) != 0 {
		t.Fatalf("centre seeded with %d tiles", len(factories[0]))
	}
	for id := 1; id < len(factories); id++ {
		if len(factories[id]) != domain.FactoryCapacity {
			t.Fatalf("factory %d holds %d tiles", id, len(factories[id]))
		}
	}
	if got := countTiles(e); got != domain.TotalTiles {
		t.Fatalf("tiles after seeding = %d, want %d", got, domain.TotalTiles)
	}
	if len(e.LegalMoves()) == 0 {
		t.Fatalf("expected legal moves after seeding")
	}
}

func TestSetFactory(t *testing.T) {
	e := newTestEngine(t, 2)

	if err := e.SetFactory(domain.CentreFactoryID, []domain.TileColor{domain.Blue}); !errors.Is(err, ErrCentreFactory) {
		t.Fatalf("SetFactory(centre) error = %v", err)
	}
	if err := e.SetFactory(6, nil); !errors.Is(err, ErrFactoryOutOfRange) {
		t.Fatalf("SetFactory(6) error = %v", err)
	}

	tiles := []domain.TileColor{domain.Red, domain.Red, domain.Blue}
	if err := e.SetFactory(2, tiles); err != nil {
		t.Fatalf("SetFactory(2) error = %v", err)
	}
	tiles[0] = domain.White
	if got := e.Factories()[2]; !reflect.DeepEqual(got, []domain.TileColor{domain.Red, domain.Red, domain.Blue}) {
		t.Fatalf("factory 2 = %v, engine aliased caller slice", got)
	}
}

func TestTakeMovesLeftoversToCentre(t *testing.T) {
	e := newTestEngine(t, 2)
	e.ClearBag()
	if err := e.SetFactory(1, []domain.TileColor{domain.Red, domain.Blue, domain.Red, domain.White}); err != nil {
		t.Fatalf("SetFactory error = %v", err)
	}
	e.RecomputeLegalMoves()

	if _, err := e.Take(1, domain.Black); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("Take(black) error = %v, want ErrIllegalMove", err)
	}

	taken, err := e.Take(1, domain.Red)
	if err != nil {
		t.Fatalf("Take(red) error = %v", err)
	}
	if len(taken) != 2 {
		t.Fatalf("taken = %v, want two reds", taken)
	}
	if got := e.Factories()[domain.CentreFactoryID]; !reflect.DeepEqual(got, []domain.TileColor{domain.Blue, domain.White}) {
		t.Fatalf("centre = %v", got)
	}

	if _, err := e.Take(domain.CentreFactoryID, domain.Blue); err != nil {
		t.Fatalf("Take(centre, blue) error = %v", err)
	}
	if _, err := e.Take(domain.CentreFactoryID, domain.White); err != nil {
		t.Fatalf("Take(centre, white) error = %v", err)
	}
	if !e.RoundOver() {
		t.Fatalf("RoundOver() = false with empty table")
	}
}

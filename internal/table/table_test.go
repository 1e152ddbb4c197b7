package table

import (
	"errors"
	"sync"
	"testing"
	"time"

	"tiledraft/internal/app"
	"tiledraft/internal/domain"

	"go.uber.org/zap"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl := New(newTestBoard(t, 11), zap.NewNop())
	t.Cleanup(tbl.Close)
	return tbl
}

func TestTableSerialisesConcurrentPlacements(t *testing.T) {
	tbl := newTestTable(t)
	if _, _, err := tbl.BeginDistribution(); err != nil {
		t.Fatalf("BeginDistribution() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := app.PlaceTileCommand{FactoryID: i%5 + 1, Color: domain.Colors[i%len(domain.Colors)]}
			if _, _, err := tbl.Execute(cmd); err != nil {
				t.Errorf("Execute() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	s, err := tbl.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if s.View.Placed != 20 {
		t.Fatalf("placed = %d, want 20 (capacity bound)", s.View.Placed)
	}
	if s.View.Placed+s.View.TotalAvailable != domain.TotalTiles {
		t.Fatalf("placed %d + available %d != %d", s.View.Placed, s.View.TotalAvailable, domain.TotalTiles)
	}
	if !s.View.Complete {
		t.Fatalf("expected complete distribution")
	}
}

func TestTableSubscribe(t *testing.T) {
	tbl := newTestTable(t)
	events, unsubscribe := tbl.Subscribe()

	if _, _, err := tbl.BeginDistribution(); err != nil {
		t.Fatalf("BeginDistribution() error = %v", err)
	}
	select {
	case ev := <-events:
		if ev.Kind != app.EventDistributionStarted {
			t.Fatalf("first event = %s", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered")
	}

	// Failed commands publish nothing.
	if _, _, err := tbl.BeginDistribution(); !errors.Is(err, app.ErrNotIdle) {
		t.Fatalf("second BeginDistribution() error = %v, want ErrNotIdle", err)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %s", ev.Kind)
	default:
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-events; ok {
		t.Fatalf("channel still open after unsubscribe")
	}
}

func TestTableClose(t *testing.T) {
	tbl := New(newTestBoard(t, 12), nil)
	events, _ := tbl.Subscribe()
	tbl.Close()
	tbl.Close()

	if _, ok := <-events; ok {
		t.Fatalf("subscription open after Close")
	}
	if _, err := tbl.State(); !errors.Is(err, ErrClosed) {
		t.Fatalf("State() after Close error = %v, want ErrClosed", err)
	}
	late, _ := tbl.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscription on closed table is open")
	}
}

func TestTableReplay(t *testing.T) {
	tbl := newTestTable(t)
	if _, _, err := tbl.BeginDistribution(); err != nil {
		t.Fatalf("BeginDistribution() error = %v", err)
	}
	cmds, err := app.DecodeCommands([]app.CommandRecord{
		{Kind: app.CommandPlaceTile, FactoryID: 3, Color: "yellow"},
		{Kind: app.CommandPlaceTile, FactoryID: 3, Color: "black"},
		{Kind: app.CommandRemoveTile, FactoryID: 3, Slot: 0},
	})
	if err != nil {
		t.Fatalf("DecodeCommands() error = %v", err)
	}
	events, s, err := tbl.Replay(cmds)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Replay() events = %d, want 3", len(events))
	}
	if got := s.View.Configuration[2].Tiles; len(got) != 1 || got[0] != domain.Black {
		t.Fatalf("factory 3 = %v, want [black]", got)
	}
}

package memory

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"tiledraft/internal/domain"
)

var (
	ErrUnsupportedPlayers = errors.New("unsupported player count")
	ErrFactoryOutOfRange  = errors.New("factory id out of range")
	ErrCentreFactory      = errors.New("centre cannot be seeded")
	ErrIllegalMove        = errors.New("illegal move")
)

// Move is one legal draft: take every tile of Color from FactoryID.
type Move struct {
	FactoryID int
	Color     domain.TileColor
	Count     int
}

// Engine is an in-memory rules engine implementing ports.RulesEngine.
// It is not safe for concurrent use; callers serialise access.
type Engine struct {
	players       int
	tilesPerColor int
	factories     [][]domain.TileColor // index 0 = centre
	bag           []domain.TileColor
	moves         []Move
	recomputes    int
	rng           *rand.Rand
}

// Setup sizes a new engine.
type Setup struct {
	Players int
	// Factories overrides the standard 2*players+1 when positive.
	Factories     int
	TilesPerColor int
}

// NewEngine constructs an engine with a full, shuffled bag.
// rng may be nil to use a time-seeded default.
func NewEngine(setup Setup, rng *rand.Rand) (*Engine, error) {
	n := domain.FactoriesForPlayers(setup.Players)
	if n == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPlayers, setup.Players)
	}
	if setup.Factories > 0 {
		n = setup.Factories
	}
	if setup.TilesPerColor <= 0 {
		setup.TilesPerColor = domain.TilesPerColor
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine{
		players:       setup.Players,
		tilesPerColor: setup.TilesPerColor,
		factories:     make([][]domain.TileColor, n+1),
		rng:           rng,
	}
	e.NewGame()
	return e, nil
}

// NewGame refills the bag, shuffles it and empties every factory and the centre.
func (e *Engine) NewGame() {
	e.bag = domain.NewBag(e.tilesPerColor)
	e.rng.Shuffle(len(e.bag), func(i, j int) { e.bag[i], e.bag[j] = e.bag[j], e.bag[i] })
	for i := range e.factories {
		e.factories[i] = nil
	}
	e.moves = nil
}

// SeedFactories is the engine's own random distribution: each factory draws up to
// FactoryCapacity tiles from the front of the bag.
func (e *Engine) SeedFactories() {
	for id := 1; id < len(e.factories); id++ {
		n := domain.FactoryCapacity
		if n > len(e.bag) {
			n = len(e.bag)
		}
		e.factories[id] = append([]domain.TileColor(nil), e.bag[:n]...)
		e.bag = e.bag[n:]
	}
	e.RecomputeLegalMoves()
}

// Players returns the configured player count.
func (e *Engine) Players() int {
	return e.players
}

func (e *Engine) FactoryCount() int {
	return len(e.factories) - 1
}

func (e *Engine) Factories() [][]domain.TileColor {
	out := make([][]domain.TileColor, len(e.factories))
	for i, f := range e.factories {
		out[i] = append([]domain.TileColor(nil), f...)
	}
	return out
}

func (e *Engine) Bag() []domain.TileColor {
	return append([]domain.TileColor(nil), e.bag...)
}

func (e *Engine) ClearFactories() {
	for id := 1; id < len(e.factories); id++ {
		e.factories[id] = nil
	}
}

func (e *Engine) ClearBag() {
	e.bag = nil
}

func (e *Engine) SetFactory(id int, tiles []domain.TileColor) error {
	if id == domain.CentreFactoryID {
		return ErrCentreFactory
	}
	if id < 0 || id >= len(e.factories) {
		return fmt.Errorf("%w: %d", ErrFactoryOutOfRange, id)
	}
	e.factories[id] = append([]domain.TileColor(nil), tiles...)
	return nil
}

func (e *Engine) ReplaceBag(tiles []domain.TileColor) {
	e.bag = append([]domain.TileColor(nil), tiles...)
}

// RecomputeLegalMoves lists one move per distinct color in every factory and the centre.
func (e *Engine) RecomputeLegalMoves() {
	e.recomputes++
	e.moves = e.moves[:0]
	for id, tiles := range e.factories {
		var counts [len(domain.Colors) + 1]int
		for _, c := range tiles {
			if c.Valid() {
				counts[c]++
			}
		}
		for _, c := range domain.Colors {
			if counts[c] > 0 {
				e.moves = append(e.moves, Move{FactoryID: id, Color: c, Count: counts[c]})
			}
		}
	}
}

// LegalMoves returns a copy of the current legal-move set.
func (e *Engine) LegalMoves() []Move {
	return append([]Move(nil), e.moves...)
}

// Recomputes returns how many times the legal-move set was rebuilt.
func (e *Engine) Recomputes() int {
	return e.recomputes
}

// Take drafts every tile of color from a factory. Leftovers from a non-centre
// factory slide into the centre. The drafted tiles are returned.
func (e *Engine) Take(factoryID int, color domain.TileColor) ([]domain.TileColor, error) {
	if !e.isLegal(factoryID, color) {
		return nil, fmt.Errorf("%w: factory %d color %s", ErrIllegalMove, factoryID, color)
	}

	var taken, rest []domain.TileColor
	for _, c := range e.factories[factoryID] {
		if c == color {
			taken = append(taken, c)
		} else {
			rest = append(rest, c)
		}
	}

	if factoryID == domain.CentreFactoryID {
		e.factories[factoryID] = rest
	} else {
		e.factories[factoryID] = nil
		e.factories[domain.CentreFactoryID] = append(e.factories[domain.CentreFactoryID], rest...)
	}
	e.RecomputeLegalMoves()
	return taken, nil
}

func (e *Engine) isLegal(factoryID int, color domain.TileColor) bool {
	for _, m := range e.moves {
		if m.FactoryID == factoryID && m.Color == color {
			return true
		}
	}
	return false
}

// RoundOver reports whether every factory and the centre are empty.
func (e *Engine) RoundOver() bool {
	for _, f := range e.factories {
		if len(f) > 0 {
			return false
		}
	}
	return true
}

package table

import (
	"errors"
	"fmt"
	"math/rand"

	"tiledraft/internal/app"
	"tiledraft/internal/domain"
	"tiledraft/internal/ports/memory"
)

var (
	ErrNoRound         = errors.New("no distributed round in play")
	ErrRoundInProgress = errors.New("tiles remain on the table")
	ErrUnknownDiscard  = errors.New("discarded tiles were never drafted")
	ErrRoundEndPending = errors.New("round end not reported")
)

// EventTilesDrafted is emitted by the board when a player drafts from a factory
// or the centre. It is not a controller event.
const EventTilesDrafted app.EventKind = "tiles_drafted"

type TilesDraftedPayload struct {
	FactoryID int
	Color     domain.TileColor
	Count     int
	RoundOver bool
}

// State is a read model of the whole table: controller view plus engine contents.
type State struct {
	View       app.View
	Players    int
	Factories  [][]domain.TileColor
	BagSize    int
	LegalMoves []memory.Move
	Drafted    []domain.TileColor
	RoundOver  bool
}

// Board binds a distribution controller to an in-memory engine and adds the
// drafting steps needed to play a round out. It is not safe for concurrent use.
type Board struct {
	engine  *memory.Engine
	ctrl    *app.DistributionController
	drafted []domain.TileColor
	inRound bool // set by StartRound, cleared by RoundEnded
}

// NewBoard creates a board with a freshly seeded engine.
func NewBoard(setup memory.Setup, rng *rand.Rand, newID func() string) (*Board, error) {
	engine, err := memory.NewEngine(setup, rng)
	if err != nil {
		return nil, err
	}
	engine.SeedFactories()
	return &Board{
		engine: engine,
		ctrl:   app.NewDistributionController(engine, newID),
	}, nil
}

// NewGame refills and reseeds the engine and resets the controller.
func (b *Board) NewGame() []app.Event {
	b.engine.NewGame()
	b.engine.SeedFactories()
	b.drafted = nil
	b.inRound = false
	return b.ctrl.NewGame()
}

// BeginDistribution enters the next round's distribution. The previous round
// must be played out and its end reported first.
func (b *Board) BeginDistribution() ([]app.Event, error) {
	if b.inRound {
		if !b.engine.RoundOver() {
			return nil, ErrRoundInProgress
		}
		return nil, ErrRoundEndPending
	}
	events, err := b.ctrl.Enter()
	if err != nil {
		return nil, err
	}
	b.drafted = nil
	return events, nil
}

func (b *Board) Execute(cmd app.Command) ([]app.Event, error) {
	return b.ctrl.Execute(cmd)
}

func (b *Board) Phase() app.Phase {
	return b.ctrl.Phase()
}

// CanStartRound reports whether StartRound may be offered.
func (b *Board) CanStartRound() bool {
	return b.ctrl.CanApply()
}

func (b *Board) StartRound() ([]app.Event, error) {
	events, err := b.ctrl.Apply()
	if err != nil {
		return nil, err
	}
	b.inRound = true
	return events, nil
}

// Draft takes every tile of color from a factory (0 is the centre).
func (b *Board) Draft(factoryID int, color domain.TileColor) ([]app.Event, error) {
	if b.ctrl.Phase() != app.PhaseIdle {
		return nil, app.ErrNotIdle
	}
	if !b.inRound {
		return nil, ErrNoRound
	}
	taken, err := b.engine.Take(factoryID, color)
	if err != nil {
		return nil, fmt.Errorf("draft: %w", err)
	}
	b.drafted = append(b.drafted, taken...)

	return []app.Event{{
		Kind: EventTilesDrafted,
		Payload: TilesDraftedPayload{
			FactoryID: factoryID,
			Color:     color,
			Count:     len(taken),
			RoundOver: b.engine.RoundOver(),
		},
	}}, nil
}

// RoundEnded reports the tiles leaving play as discards. Only tiles drafted
// this round may be discarded; the rest are considered placed on walls.
func (b *Board) RoundEnded(discarded []domain.TileColor) ([]app.Event, error) {
	if b.ctrl.Phase() != app.PhaseIdle {
		return nil, app.ErrNotIdle
	}
	if !b.inRound {
		return nil, ErrNoRound
	}
	if !b.engine.RoundOver() {
		return nil, ErrRoundInProgress
	}
	if !subset(discarded, b.drafted) {
		return nil, ErrUnknownDiscard
	}
	events, err := b.ctrl.RecordRoundEnd(discarded)
	if err != nil {
		return nil, err
	}
	b.drafted = nil
	b.inRound = false
	return events, nil
}

// Replay runs a decoded command log against the current distribution.
func (b *Board) Replay(cmds []app.Command) ([]app.Event, error) {
	return app.Replay(b.ctrl, cmds)
}

func (b *Board) State() State {
	return State{
		View:       b.ctrl.View(),
		Players:    b.engine.Players(),
		Factories:  b.engine.Factories(),
		BagSize:    len(b.engine.Bag()),
		LegalMoves: b.engine.LegalMoves(),
		Drafted:    append([]domain.TileColor(nil), b.drafted...),
		RoundOver:  b.engine.RoundOver(),
	}
}

func subset(part, whole []domain.TileColor) bool {
	var counts [len(domain.Colors) + 1]int
	for _, c := range whole {
		if c.Valid() {
			counts[c]++
		}
	}
	for _, c := range part {
		if !c.Valid() || counts[c] == 0 {
			return false
		}
		counts[c]--
	}
	return true
}

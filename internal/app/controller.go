package app

import (
	"errors"
	"fmt"

	"tiledraft/internal/domain"
	"tiledraft/internal/ports"

	"github.com/google/uuid"
)

var (
	ErrNotIdle         = errors.New("distribution already in progress")
	ErrNotDistributing = errors.New("no distribution in progress")
	ErrPrematureApply  = errors.New("distribution incomplete")
	ErrNoFactories     = errors.New("engine reports no factories")
	ErrFactoryMismatch = errors.New("engine factories changed during distribution")
)

// DistributionController drives one round's manual distribution phase and
// reconciles the result into the rules engine. It owns the tile supply and the
// placement session; the engine is written only in Enter (round one) and Apply.
// It is not safe for concurrent use.
type DistributionController struct {
	engine  ports.RulesEngine
	supply  *domain.TileSupply
	session *domain.PlacementSession
	newID   func() string

	phase       Phase
	round       int
	sessionID   string
	tilesNeeded int
	complete    bool
}

// NewDistributionController constructs an idle controller for a new game.
// newID may be nil to use random UUIDs for session ids.
func NewDistributionController(engine ports.RulesEngine, newID func() string) *DistributionController {
	if newID == nil {
		newID = uuid.NewString
	}
	return &DistributionController{
		engine:  engine,
		supply:  domain.NewTileSupply(),
		session: domain.NewPlacementSession(),
		newID:   newID,
		phase:   PhaseIdle,
	}
}

// Phase returns the current distribution phase.
func (c *DistributionController) Phase() Phase {
	return c.phase
}

// Round returns the number of distribution rounds entered in this game.
func (c *DistributionController) Round() int {
	return c.round
}

// CanApply reports whether the start-round action may be offered.
func (c *DistributionController) CanApply() bool {
	return c.phase == PhaseDistributing && c.isComplete()
}

// NewGame discards all in-flight state unconditionally.
func (c *DistributionController) NewGame() []Event {
	c.supply.Reset()
	c.session.RegisterFactories(nil)
	c.phase = PhaseIdle
	c.round = 0
	c.sessionID = ""
	c.tilesNeeded = 0
	c.complete = false
	return []Event{{Kind: EventGameReset, Payload: GameResetPayload{Round: 0}}}
}

// Enter starts a round's distribution phase. On the first round of a game the
// engine's pre-distribution factories and bag are moved into the supply.
func (c *DistributionController) Enter() ([]Event, error) {
	if c.phase != PhaseIdle {
		return nil, ErrNotIdle
	}
	n := c.engine.FactoryCount()
	if n <= 0 {
		return nil, ErrNoFactories
	}

	if c.round == 0 {
		factories := c.engine.Factories()
		if len(factories) > 0 {
			factories = factories[1:] // centre is never part of distribution
		}
		if err := c.supply.InitializeFromExternalState(factories, c.engine.Bag()); err != nil {
			return nil, fmt.Errorf("enter round 1: %w", err)
		}
		c.engine.ClearFactories()
		c.engine.ClearBag()
	}

	c.tilesNeeded = n * domain.FactoryCapacity
	refilled := c.supply.RefillFromDiscardIfNeeded(c.tilesNeeded)

	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	c.session.RegisterFactories(ids)

	c.round++
	c.phase = PhaseDistributing
	c.sessionID = c.newID()
	c.complete = c.isComplete()

	events := []Event{{
		Kind: EventDistributionStarted,
		Payload: DistributionStartedPayload{
			SessionID:    c.sessionID,
			Round:        c.round,
			NumFactories: n,
			TilesNeeded:  c.tilesNeeded,
			Available:    c.supply.Counts(),
			Pool:         c.pool(),
			Refilled:     refilled,
		},
	}}
	if c.complete {
		events = append(events, c.completionEvent())
	}
	return events, nil
}

// Execute applies one operator command. Rejected commands leave all state
// unchanged and are reported as EventCommandRejected, not as errors.
func (c *DistributionController) Execute(cmd Command) ([]Event, error) {
	if c.phase != PhaseDistributing {
		return nil, ErrNotDistributing
	}

	var events []Event
	switch cmd := cmd.(type) {
	case PlaceTileCommand:
		events = c.place(cmd)
	case RemoveTileCommand:
		events = c.remove(cmd)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}

	if now := c.isComplete(); now != c.complete {
		c.complete = now
		events = append(events, c.completionEvent())
	}
	return events, nil
}

func (c *DistributionController) place(cmd PlaceTileCommand) []Event {
	reject := func(reason RejectReason) []Event {
		return []Event{{
			Kind: EventCommandRejected,
			Payload: CommandRejectedPayload{
				Command:   CommandPlaceTile,
				Reason:    reason,
				FactoryID: cmd.FactoryID,
				Color:     cmd.Color,
			},
		}}
	}

	if !c.supply.Take(cmd.Color) {
		if !cmd.Color.Valid() {
			return reject(RejectInvalidColor)
		}
		return reject(RejectSupplyExhausted)
	}
	if !c.session.Place(cmd.FactoryID, cmd.Color) {
		c.supply.Give(cmd.Color)
		if !c.session.HasFactory(cmd.FactoryID) {
			return reject(RejectUnknownFactory)
		}
		return reject(RejectFactoryFull)
	}

	return []Event{{
		Kind: EventTilePlaced,
		Payload: TilePlacedPayload{
			FactoryID: cmd.FactoryID,
			Slot:      len(c.session.Tiles(cmd.FactoryID)) - 1,
			Color:     cmd.Color,
		},
	}}
}

func (c *DistributionController) remove(cmd RemoveTileCommand) []Event {
	color, ok := c.session.RemoveAt(cmd.FactoryID, cmd.Slot)
	if !ok {
		reason := RejectInvalidSlot
		if !c.session.HasFactory(cmd.FactoryID) {
			reason = RejectUnknownFactory
		}
		return []Event{{
			Kind: EventCommandRejected,
			Payload: CommandRejectedPayload{
				Command:   CommandRemoveTile,
				Reason:    reason,
				FactoryID: cmd.FactoryID,
				Slot:      cmd.Slot,
			},
		}}
	}
	c.supply.Give(color)

	return []Event{{
		Kind: EventTileRemoved,
		Payload: TileRemovedPayload{
			FactoryID: cmd.FactoryID,
			Slot:      cmd.Slot,
			Color:     color,
		},
	}}
}

// Apply writes the placed configuration into the engine, replaces the engine's
// bag with the remaining supply and recomputes legal moves. Callers must only
// offer it while CanApply holds.
func (c *DistributionController) Apply() ([]Event, error) {
	if c.phase != PhaseDistributing {
		return nil, ErrNotDistributing
	}
	if !c.isComplete() {
		return nil, ErrPrematureApply
	}

	config := c.session.SnapshotConfiguration()
	// Nothing is written unless every factory still exists in the engine.
	n := c.engine.FactoryCount()
	for _, a := range config {
		if a.FactoryID < 1 || a.FactoryID > n {
			return nil, fmt.Errorf("%w: factory %d of %d", ErrFactoryMismatch, a.FactoryID, n)
		}
	}
	for _, a := range config {
		if err := c.engine.SetFactory(a.FactoryID, a.Tiles); err != nil {
			return nil, fmt.Errorf("apply factory %d: %w", a.FactoryID, err)
		}
	}
	bag := c.supply.Flatten()
	c.engine.ReplaceBag(bag)
	c.engine.RecomputeLegalMoves()

	payload := DistributionAppliedPayload{
		SessionID:     c.sessionID,
		Round:         c.round,
		Configuration: config,
		Bag:           bag,
	}

	c.session.RegisterFactories(nil)
	c.phase = PhaseIdle
	c.sessionID = ""
	c.tilesNeeded = 0
	c.complete = false

	return []Event{{Kind: EventDistributionApplied, Payload: payload}}, nil
}

// RecordRoundEnd takes back the tiles the engine removed from play at round end
// (floor line, incomplete pattern lines). They wait in the discard pile until a
// refill. Tiles not reported here are lost to the supply.
func (c *DistributionController) RecordRoundEnd(discarded []domain.TileColor) ([]Event, error) {
	if c.phase != PhaseIdle {
		return nil, ErrNotIdle
	}
	before := c.supply.DiscardLen()
	c.supply.RecordDiscard(discarded...)

	return []Event{{
		Kind: EventDiscardRecorded,
		Payload: DiscardRecordedPayload{
			Count:       c.supply.DiscardLen() - before,
			DiscardSize: c.supply.DiscardLen(),
		},
	}}, nil
}

func (c *DistributionController) pool() int {
	return c.supply.TotalAvailable() + c.session.TotalPlaced()
}

// isComplete judges completion against the session's starting pool: available plus placed.
func (c *DistributionController) isComplete() bool {
	return c.session.IsComplete(c.pool())
}

func (c *DistributionController) completionEvent() Event {
	return Event{
		Kind: EventCompletionChanged,
		Payload: CompletionChangedPayload{
			Complete: c.complete,
			Placed:   c.session.TotalPlaced(),
			Pool:     c.pool(),
		},
	}
}

// View is a read model of the controller for transports.
type View struct {
	Phase          Phase
	Round          int
	SessionID      string
	Available      map[domain.TileColor]int
	TotalAvailable int
	DiscardSize    int
	Configuration  []domain.FactoryAssignment
	TilesNeeded    int
	Placed         int
	Pool           int
	Complete       bool
}

// View returns a detached snapshot of the controller state.
func (c *DistributionController) View() View {
	return View{
		Phase:          c.phase,
		Round:          c.round,
		SessionID:      c.sessionID,
		Available:      c.supply.Counts(),
		TotalAvailable: c.supply.TotalAvailable(),
		DiscardSize:    c.supply.DiscardLen(),
		Configuration:  c.session.SnapshotConfiguration(),
		TilesNeeded:    c.tilesNeeded,
		Placed:         c.session.TotalPlaced(),
		Pool:           c.pool(),
		Complete:       c.CanApply(),
	}
}

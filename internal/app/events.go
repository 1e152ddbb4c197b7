package app

import "tiledraft/internal/domain"

// EventKind identifies emitted distribution events for transport dispatch.
type EventKind string

const (
	EventGameReset           EventKind = "game_reset"
	EventDistributionStarted EventKind = "distribution_started"
	EventTilePlaced          EventKind = "tile_placed"
	EventTileRemoved         EventKind = "tile_removed"
	EventCommandRejected     EventKind = "command_rejected"
	EventCompletionChanged   EventKind = "completion_changed"
	EventDistributionApplied EventKind = "distribution_applied"
	EventDiscardRecorded     EventKind = "discard_recorded"
)

// Event is an app event. Transports decide who receives it.
type Event struct {
	Kind    EventKind
	Payload any
}

// RejectReason explains why a command was a no-op.
type RejectReason string

const (
	RejectSupplyExhausted RejectReason = "supply_exhausted"
	RejectFactoryFull     RejectReason = "factory_full"
	RejectUnknownFactory  RejectReason = "unknown_factory"
	RejectInvalidColor    RejectReason = "invalid_color"
	RejectInvalidSlot     RejectReason = "invalid_slot"
)

type GameResetPayload struct {
	Round int
}

type DistributionStartedPayload struct {
	SessionID    string
	Round        int
	NumFactories int
	TilesNeeded  int
	Available    map[domain.TileColor]int
	Pool         int
	Refilled     bool
}

type TilePlacedPayload struct {
	FactoryID int
	Slot      int
	Color     domain.TileColor
}

type TileRemovedPayload struct {
	FactoryID int
	Slot      int
	Color     domain.TileColor
}

type CommandRejectedPayload struct {
	Command   CommandKind
	Reason    RejectReason
	FactoryID int
	Slot      int
	Color     domain.TileColor
}

type CompletionChangedPayload struct {
	Complete bool
	Placed   int
	Pool     int
}

type DistributionAppliedPayload struct {
	SessionID     string
	Round         int
	Configuration []domain.FactoryAssignment
	Bag           []domain.TileColor
}

type DiscardRecordedPayload struct {
	Count       int
	DiscardSize int
}

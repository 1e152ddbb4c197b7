package app

import (
	"errors"
	"fmt"

	"tiledraft/internal/domain"
)

// ErrUnknownCommand is returned when a command record names no known command.
var ErrUnknownCommand = errors.New("unknown command kind")

// CommandKind names an operator command.
type CommandKind string

const (
	CommandPlaceTile  CommandKind = "place_tile"
	CommandRemoveTile CommandKind = "remove_tile"
)

// Command is an operator mutation fed into DistributionController.Execute.
type Command interface {
	Kind() CommandKind
}

// PlaceTileCommand drops one tile of Color onto FactoryID.
type PlaceTileCommand struct {
	FactoryID int
	Color     domain.TileColor
}

func (PlaceTileCommand) Kind() CommandKind { return CommandPlaceTile }

// RemoveTileCommand lifts the tile at Slot off FactoryID back into the supply.
type RemoveTileCommand struct {
	FactoryID int
	Slot      int
}

func (RemoveTileCommand) Kind() CommandKind { return CommandRemoveTile }

// CommandRecord is the serialised form of a Command, used for replay logs.
type CommandRecord struct {
	Kind      CommandKind `json:"kind"`
	FactoryID int         `json:"factory_id"`
	Color     string      `json:"color,omitempty"`
	Slot      int         `json:"slot,omitempty"`
}

// ToCommand decodes the record.
func (r CommandRecord) ToCommand() (Command, error) {
	switch r.Kind {
	case CommandPlaceTile:
		c, err := domain.ParseTileColor(r.Color)
		if err != nil {
			return nil, err
		}
		return PlaceTileCommand{FactoryID: r.FactoryID, Color: c}, nil
	case CommandRemoveTile:
		return RemoveTileCommand{FactoryID: r.FactoryID, Slot: r.Slot}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, r.Kind)
	}
}

// RecordOf encodes a command for a replay log.
func RecordOf(cmd Command) CommandRecord {
	switch c := cmd.(type) {
	case PlaceTileCommand:
		return CommandRecord{Kind: CommandPlaceTile, FactoryID: c.FactoryID, Color: c.Color.String()}
	case RemoveTileCommand:
		return CommandRecord{Kind: CommandRemoveTile, FactoryID: c.FactoryID, Slot: c.Slot}
	default:
		return CommandRecord{Kind: cmd.Kind()}
	}
}

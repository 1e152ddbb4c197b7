package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownColor is returned when a color name cannot be parsed.
var ErrUnknownColor = errors.New("unknown tile color")

// TileColor is the unit of exchange on the table: one tile of one color.
type TileColor int

const (
	// NoTile marks an empty slot. It is never counted or placed.
	NoTile TileColor = iota
	Blue
	Yellow
	Red
	Black
	White
)

// colorCount sizes arrays indexed by TileColor, sentinel included.
const colorCount = int(White) + 1

// Colors lists the playable colors in canonical order.
var Colors = [...]TileColor{Blue, Yellow, Red, Black, White}

var colorNames = [colorCount]string{"none", "blue", "yellow", "red", "black", "white"}

// String returns the lowercase color name.
func (c TileColor) String() string {
	if c < 0 || int(c) >= colorCount {
		return fmt.Sprintf("TileColor(%d)", int(c))
	}
	return colorNames[c]
}

// Valid reports whether c is one of the five playable colors.
func (c TileColor) Valid() bool {
	return c > NoTile && int(c) < colorCount
}

// ParseTileColor resolves a color name, case-insensitively.
func ParseTileColor(name string) (TileColor, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, c := range Colors {
		if colorNames[c] == n {
			return c, nil
		}
	}
	return NoTile, fmt.Errorf("%w: %q", ErrUnknownColor, name)
}

// FactoryAssignment is the ordered content of one factory during distribution.
type FactoryAssignment struct {
	FactoryID int
	Tiles     []TileColor
}

func (a FactoryAssignment) clone() FactoryAssignment {
	return FactoryAssignment{FactoryID: a.FactoryID, Tiles: append([]TileColor(nil), a.Tiles...)}
}

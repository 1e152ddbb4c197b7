package domain

const (
	// FactoryCapacity is the number of tiles a factory holds when full.
	FactoryCapacity = 4
	// CentreFactoryID is the engine index of the centre pool. It is never seeded manually.
	CentreFactoryID = 0
	// TilesPerColor is the number of tiles of each color in a fresh game.
	TilesPerColor = 20
	// MinPlayers and MaxPlayers bound the supported table sizes.
	MinPlayers = 2
	MaxPlayers = 4
)

// TotalTiles is the number of tiles in a fresh game.
const TotalTiles = TilesPerColor * len(Colors)

// FactoriesForPlayers returns the number of non-centre factories for a player count,
// or 0 if the count is unsupported.
func FactoriesForPlayers(players int) int {
	if players < MinPlayers || players > MaxPlayers {
		return 0
	}
	return 2*players + 1
}

// NewBag returns a fresh, ordered bag holding perColor tiles of every color.
func NewBag(perColor int) []TileColor {
	if perColor < 0 {
		perColor = 0
	}
	bag := make([]TileColor, 0, perColor*len(Colors))
	for _, c := range Colors {
		for i := 0; i < perColor; i++ {
			bag = append(bag, c)
		}
	}
	return bag
}

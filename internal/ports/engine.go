package ports

import "tiledraft/internal/domain"

// RulesEngine is the external game-rules engine the distribution phase seeds.
// Move legality, scoring and turn order stay inside the engine.
type RulesEngine interface {
	// FactoryCount returns the number of non-centre factories for the active player count.
	FactoryCount() int

	// Factories returns a copy of every factory's tiles. Index 0 is the centre pool.
	Factories() [][]domain.TileColor

	// Bag returns a copy of the engine's bag.
	Bag() []domain.TileColor

	// ClearFactories empties every non-centre factory.
	ClearFactories()

	// ClearBag empties the engine's bag.
	ClearBag()

	// SetFactory replaces the tiles of one non-centre factory.
	// Returns an error if id is the centre or out of range.
	SetFactory(id int, tiles []domain.TileColor) error

	// ReplaceBag replaces the bag contents wholesale.
	ReplaceBag(tiles []domain.TileColor)

	// RecomputeLegalMoves rebuilds the legal-move set from current factory state.
	RecomputeLegalMoves()
}

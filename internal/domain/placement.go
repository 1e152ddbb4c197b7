package domain

// factorySlot is one entry of the placement arena. Unregistered ids leave holes.
type factorySlot struct {
	registered bool
	tiles      []TileColor
}

// PlacementSession records which tiles the operator placed on each factory.
// It does not consult the supply; callers gate placements on TileSupply.Take.
type PlacementSession struct {
	slots []factorySlot // index = factoryID - 1
	count int
}

// NewPlacementSession returns a session with no factories registered.
func NewPlacementSession() *PlacementSession {
	return &PlacementSession{}
}

// RegisterFactories replaces any prior state with one empty factory per id.
// Non-positive ids (the centre included) are ignored.
func (p *PlacementSession) RegisterFactories(ids []int) {
	maxID := 0
	for _, id := range ids {
		if id > maxID {
			maxID = id
		}
	}
	p.slots = make([]factorySlot, maxID)
	p.count = 0
	for _, id := range ids {
		if id <= 0 || p.slots[id-1].registered {
			continue
		}
		p.slots[id-1] = factorySlot{registered: true, tiles: make([]TileColor, 0, FactoryCapacity)}
		p.count++
	}
}

func (p *PlacementSession) slot(id int) *factorySlot {
	if id <= 0 || id > len(p.slots) || !p.slots[id-1].registered {
		return nil
	}
	return &p.slots[id-1]
}

// HasFactory reports whether id was registered.
func (p *PlacementSession) HasFactory(id int) bool {
	return p.slot(id) != nil
}

// Place appends a tile to the factory. It fails without mutation when the
// factory is unknown or full, or the color is not playable.
func (p *PlacementSession) Place(id int, c TileColor) bool {
	s := p.slot(id)
	if s == nil || !c.Valid() || len(s.tiles) >= FactoryCapacity {
		return false
	}
	s.tiles = append(s.tiles, c)
	return true
}

// RemoveAt removes and returns the tile at slotIndex, closing the gap.
func (p *PlacementSession) RemoveAt(id, slotIndex int) (TileColor, bool) {
	s := p.slot(id)
	if s == nil || slotIndex < 0 || slotIndex >= len(s.tiles) {
		return NoTile, false
	}
	c := s.tiles[slotIndex]
	s.tiles = append(s.tiles[:slotIndex], s.tiles[slotIndex+1:]...)
	return c, true
}

// Tiles returns a copy of one factory's tiles, or nil if the factory is unknown.
func (p *PlacementSession) Tiles(id int) []TileColor {
	s := p.slot(id)
	if s == nil {
		return nil
	}
	return append([]TileColor(nil), s.tiles...)
}

// NumFactories returns the number of registered factories.
func (p *PlacementSession) NumFactories() int {
	return p.count
}

// Capacity returns the number of tiles all factories can hold together.
func (p *PlacementSession) Capacity() int {
	return p.count * FactoryCapacity
}

// TotalPlaced sums the tiles across all factories.
func (p *PlacementSession) TotalPlaced() int {
	total := 0
	for _, s := range p.slots {
		total += len(s.tiles)
	}
	return total
}

// IsComplete reports whether every placeable tile has been placed. Completion is
// judged against min(totalAvailable, capacity) so a short supply can still finish.
func (p *PlacementSession) IsComplete(totalAvailable int) bool {
	target := p.Capacity()
	if totalAvailable < target {
		target = totalAvailable
	}
	return p.TotalPlaced() >= target
}

// SnapshotConfiguration returns deep copies of all assignments ordered by ascending id.
func (p *PlacementSession) SnapshotConfiguration() []FactoryAssignment {
	out := make([]FactoryAssignment, 0, p.count)
	for i, s := range p.slots {
		if !s.registered {
			continue
		}
		out = append(out, FactoryAssignment{FactoryID: i + 1, Tiles: s.tiles}.clone())
	}
	return out
}

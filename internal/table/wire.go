package table

import (
	"tiledraft/internal/app"
	"tiledraft/internal/domain"
)

// Field maps use only the value types structpb.NewValue accepts, so transports
// can hand them to either encoding/json or structpb.

func colorsToValues(colors []domain.TileColor) []any {
	out := make([]any, len(colors))
	for i, c := range colors {
		out[i] = c.String()
	}
	return out
}

func countsToMap(counts map[domain.TileColor]int) map[string]any {
	out := make(map[string]any, len(counts))
	for c, n := range counts {
		out[c.String()] = n
	}
	return out
}

func assignmentsToValues(config []domain.FactoryAssignment) []any {
	out := make([]any, len(config))
	for i, a := range config {
		out[i] = map[string]any{
			"factory_id": a.FactoryID,
			"tiles":      colorsToValues(a.Tiles),
		}
	}
	return out
}

// StateFields renders a table snapshot as JSON-compatible fields.
func StateFields(s State, operator string) map[string]any {
	factories := make([]any, len(s.Factories))
	for i, f := range s.Factories {
		factories[i] = colorsToValues(f)
	}
	moves := make([]any, len(s.LegalMoves))
	for i, m := range s.LegalMoves {
		moves[i] = map[string]any{
			"factory_id": m.FactoryID,
			"color":      m.Color.String(),
			"count":      m.Count,
		}
	}
	v := s.View
	return map[string]any{
		"operator":        operator,
		"players":         s.Players,
		"phase":           string(v.Phase),
		"round":           v.Round,
		"session_id":      v.SessionID,
		"available":       countsToMap(v.Available),
		"total_available": v.TotalAvailable,
		"discard_size":    v.DiscardSize,
		"configuration":   assignmentsToValues(v.Configuration),
		"tiles_needed":    v.TilesNeeded,
		"placed":          v.Placed,
		"pool":            v.Pool,
		"complete":        v.Complete,
		"factories":       factories,
		"bag_size":        s.BagSize,
		"legal_moves":     moves,
		"drafted":         colorsToValues(s.Drafted),
		"round_over":      s.RoundOver,
	}
}

// EventFields renders an event payload as JSON-compatible fields.
func EventFields(ev app.Event) (map[string]any, bool) {
	switch p := ev.Payload.(type) {
	case app.GameResetPayload:
		return map[string]any{"round": p.Round}, true
	case app.DistributionStartedPayload:
		return map[string]any{
			"session_id":    p.SessionID,
			"round":         p.Round,
			"num_factories": p.NumFactories,
			"tiles_needed":  p.TilesNeeded,
			"available":     countsToMap(p.Available),
			"pool":          p.Pool,
			"refilled":      p.Refilled,
		}, true
	case app.TilePlacedPayload:
		return map[string]any{"factory_id": p.FactoryID, "slot": p.Slot, "color": p.Color.String()}, true
	case app.TileRemovedPayload:
		return map[string]any{"factory_id": p.FactoryID, "slot": p.Slot, "color": p.Color.String()}, true
	case app.CommandRejectedPayload:
		return map[string]any{
			"command":    string(p.Command),
			"reason":     string(p.Reason),
			"factory_id": p.FactoryID,
			"slot":       p.Slot,
			"color":      p.Color.String(),
		}, true
	case app.CompletionChangedPayload:
		return map[string]any{"complete": p.Complete, "placed": p.Placed, "pool": p.Pool}, true
	case app.DistributionAppliedPayload:
		return map[string]any{
			"session_id":    p.SessionID,
			"round":         p.Round,
			"configuration": assignmentsToValues(p.Configuration),
			"bag":           colorsToValues(p.Bag),
		}, true
	case app.DiscardRecordedPayload:
		return map[string]any{"count": p.Count, "discard_size": p.DiscardSize}, true
	case TilesDraftedPayload:
		return map[string]any{
			"factory_id": p.FactoryID,
			"color":      p.Color.String(),
			"count":      p.Count,
			"round_over": p.RoundOver,
		}, true
	default:
		return nil, false
	}
}

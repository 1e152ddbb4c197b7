package nakama

import (
	"errors"
	"fmt"
	"math"

	"tiledraft/internal/app"
	"tiledraft/internal/domain"
	"tiledraft/internal/table"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var errMissingField = errors.New("missing field")

func encodeStruct(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// decodeStruct reads a client payload. An empty payload decodes to an empty struct.
func decodeStruct(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func intField(s *structpb.Struct, key string) (int, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errMissingField, key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("field %s: want integer", key)
	}
	return int(n.NumberValue), nil
}

func colorField(s *structpb.Struct, key string) (domain.TileColor, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return domain.NoTile, fmt.Errorf("%w: %s", errMissingField, key)
	}
	return domain.ParseTileColor(v.GetStringValue())
}

// colorsField reads an optional list of color names.
func colorsField(s *structpb.Struct, key string) ([]domain.TileColor, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}
	var out []domain.TileColor
	for _, item := range v.GetListValue().GetValues() {
		c, err := domain.ParseTileColor(item.GetStringValue())
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

var eventOpCodes = map[app.EventKind]int64{
	app.EventGameReset:           OpGameReset,
	app.EventDistributionStarted: OpDistributionStarted,
	app.EventTilePlaced:          OpTilePlaced,
	app.EventTileRemoved:         OpTileRemoved,
	app.EventCommandRejected:     OpCommandRejected,
	app.EventCompletionChanged:   OpCompletionChanged,
	app.EventDistributionApplied: OpDistributionApplied,
	app.EventDiscardRecorded:     OpDiscardRecorded,
	table.EventTilesDrafted:      OpTilesDrafted,
}

// eventMessage maps an event to its op code and payload fields.
func eventMessage(ev app.Event) (int64, map[string]any, bool) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		return 0, nil, false
	}
	fields, ok := table.EventFields(ev)
	if !ok {
		return 0, nil, false
	}
	return opCode, fields, true
}

package nakama

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"tiledraft/internal/app"
	"tiledraft/internal/config"
	"tiledraft/internal/ports/memory"
	"tiledraft/internal/table"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	MatchLabelKey_Open = "open" // Key for the joinable flag in the match label
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Operator  string                      `json:"operator"` // User allowed to mutate the table
	Joined    []string                    `json:"joined"`   // User ids in join order, for operator succession
	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	Board     *table.Board                `json:"-"`
}

// ensureOperator hands the operator role to the earliest joiner still present.
func (ms *MatchState) ensureOperator() bool {
	if _, ok := ms.Presences[ms.Operator]; ok {
		return false
	}
	prev := ms.Operator
	ms.Operator = ""
	for _, userID := range ms.Joined {
		if _, ok := ms.Presences[userID]; ok {
			ms.Operator = userID
			break
		}
	}
	return ms.Operator != prev
}

func (ms *MatchState) isOpen() bool {
	return len(ms.Presences) < maxPresences
}

func (ms *MatchState) removeJoined(userID string) {
	for i, id := range ms.Joined {
		if id == userID {
			ms.Joined = append(ms.Joined[:i], ms.Joined[i+1:]...)
			return
		}
	}
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// tablePlayers resolves the table size: match params, then env, then config.
func tablePlayers(ctx context.Context, params map[string]interface{}) int {
	if v, ok := params["players"]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env[EnvPlayers]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				return i
			}
		}
	}
	return config.GetDefaultPlayers()
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	players := tablePlayers(ctx, params)
	setup := memory.Setup{
		Players:       players,
		Factories:     config.GetGameConfig().GetFactoryCount(players),
		TilesPerColor: config.GetTilesPerColor(),
	}
	board, err := table.NewBoard(setup, rand.New(rand.NewSource(time.Now().UnixNano())), nil)
	if err != nil {
		logger.Error("MatchInit: Failed to create table for %d players: %v", players, err)
		return nil, 0, ""
	}

	state := &MatchState{
		Tick:      time.Now().Unix(),
		Presences: make(map[string]runtime.Presence),
		Board:     board,
	}

	label, err := mh.label(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	logger.Info("MatchInit: Table created for %d players (%d factories).", players, setup.Factories)
	return state, config.GetTickRate(), label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if _, rejoin := matchState.Presences[presence.GetUserId()]; !rejoin && !matchState.isOpen() {
		return state, false, "Table full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		if _, exists := matchState.Presences[p.GetUserId()]; !exists {
			matchState.Joined = append(matchState.Joined, p.GetUserId())
		}
		matchState.Presences[p.GetUserId()] = p
	}

	if matchState.ensureOperator() {
		logger.Debug("MatchJoin: Operator set to %s.", matchState.Operator)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastTableState(matchState, dispatcher, logger, nil)

	return matchState
}

// MatchLeave is called when one or more users leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		matchState.removeJoined(p.GetUserId())
		logger.Debug("MatchLeave: User %s left.", p.GetUserId())
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating empty table.")
		return nil
	}

	if matchState.ensureOperator() {
		logger.Info("MatchLeave: Operator handed to %s.", matchState.Operator)
		mh.broadcastTableState(matchState, dispatcher, logger, nil)
	}
	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(matchState, dispatcher, logger, msg)
	}

	return matchState
}

// handleMessage runs one client message to completion before the next is read.
func (mh *matchHandler) handleMessage(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	if msg.GetOpCode() == OpRequestState {
		if p, ok := state.Presences[senderID]; ok {
			mh.broadcastTableState(state, dispatcher, logger, []runtime.Presence{p})
		}
		return
	}

	if senderID != state.Operator {
		logger.Warn("MatchLoop: User %s sent op %d but is not the operator (%s).", senderID, msg.GetOpCode(), state.Operator)
		mh.sendError(state, dispatcher, logger, senderID, 403, "only the table operator may change the table")
		return
	}

	request, err := decodeStruct(msg.GetData())
	if err != nil {
		logger.Warn("MatchLoop: Invalid payload from %s for op %d: %v", senderID, msg.GetOpCode(), err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid payload")
		return
	}

	var events []app.Event
	phase := state.Board.Phase()

	switch msg.GetOpCode() {
	case OpNewGame:
		events = state.Board.NewGame()
	case OpBeginDistribution:
		events, err = state.Board.BeginDistribution()
	case OpPlaceTile:
		events, err = mh.handlePlaceTile(state, request)
	case OpRemoveTile:
		events, err = mh.handleRemoveTile(state, request)
	case OpStartRound:
		if !state.Board.CanStartRound() {
			logger.Debug("StartRound: Ignored, distribution incomplete.")
			return
		}
		events, err = state.Board.StartRound()
	case OpRoundEnded:
		events, err = mh.handleRoundEnded(state, request)
	case OpDraftTiles:
		events, err = mh.handleDraftTiles(state, request)
	default:
		logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		return
	}

	if err != nil {
		logger.Warn("MatchLoop: Op %d from %s failed: %v", msg.GetOpCode(), senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}

	if state.Board.Phase() != phase {
		mh.updateLabel(state, dispatcher, logger)
	}
}

func (mh *matchHandler) handlePlaceTile(state *MatchState, request *structpb.Struct) ([]app.Event, error) {
	factoryID, err := intField(request, "factory_id")
	if err != nil {
		return nil, err
	}
	color, err := colorField(request, "color")
	if err != nil {
		return nil, err
	}
	return state.Board.Execute(app.PlaceTileCommand{FactoryID: factoryID, Color: color})
}

func (mh *matchHandler) handleRemoveTile(state *MatchState, request *structpb.Struct) ([]app.Event, error) {
	factoryID, err := intField(request, "factory_id")
	if err != nil {
		return nil, err
	}
	slot, err := intField(request, "slot")
	if err != nil {
		return nil, err
	}
	return state.Board.Execute(app.RemoveTileCommand{FactoryID: factoryID, Slot: slot})
}

func (mh *matchHandler) handleRoundEnded(state *MatchState, request *structpb.Struct) ([]app.Event, error) {
	discarded, err := colorsField(request, "discarded")
	if err != nil {
		return nil, err
	}
	return state.Board.RoundEnded(discarded)
}

func (mh *matchHandler) handleDraftTiles(state *MatchState, request *structpb.Struct) ([]app.Event, error) {
	factoryID, err := intField(request, "factory_id")
	if err != nil {
		return nil, err
	}
	color, err := colorField(request, "color")
	if err != nil {
		return nil, err
	}
	return state.Board.Draft(factoryID, color)
}

// broadcastTableState sends a full snapshot; nil recipients means everyone.
func (mh *matchHandler) broadcastTableState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, recipients []runtime.Presence) {
	bytes, err := encodeStruct(table.StateFields(state.Board.State(), state.Operator))
	if err != nil {
		logger.Error("Failed to marshal table state: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpTableState, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast table state: %v", err)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, fields, ok := eventMessage(ev)
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := encodeStruct(fields)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if ev.Kind == app.EventCommandRejected {
		p, ok := state.Presences[state.Operator]
		if !ok {
			return
		}
		recipients = []runtime.Presence{p}
	}

	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

// sendError sends an error event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := encodeStruct(map[string]any{"code": code, "message": message})
	if err != nil {
		logger.Error("Failed to marshal error event: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) label(state *MatchState) (string, error) {
	label, err := structpb.NewStruct(map[string]any{
		MatchLabelKey_Open: state.isOpen(),
		"game":             GameLabel,
		"phase":            string(state.Board.Phase()),
	})
	if err != nil {
		return "", fmt.Errorf("build label: %w", err)
	}
	labelBytes, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(labelBytes), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := mh.label(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

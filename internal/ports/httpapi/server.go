package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"tiledraft/internal/app"
	"tiledraft/internal/domain"
	"tiledraft/internal/ports/memory"
	"tiledraft/internal/table"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// envelope is the JSON frame for events, both in responses and on the websocket.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type response struct {
	Events []envelope     `json:"events"`
	State  map[string]any `json:"state"`
}

type placeRequest struct {
	FactoryID int    `json:"factory_id"`
	Color     string `json:"color"`
}

type removeRequest struct {
	FactoryID int `json:"factory_id"`
	Slot      int `json:"slot"`
}

type roundEndRequest struct {
	Discarded []string `json:"discarded"`
}

type replayRequest struct {
	Commands []app.CommandRecord `json:"commands"`
}

// Server exposes one table over REST and pushes its events over a websocket.
type Server struct {
	table    *table.Table
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewServer(t *table.Table, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		table:    t,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	api := r.PathPrefix("/api/table").Subrouter()
	api.HandleFunc("", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/new-game", s.handleNewGame).Methods(http.MethodPost)
	api.HandleFunc("/distribution", s.handleBeginDistribution).Methods(http.MethodPost)
	api.HandleFunc("/place", s.handlePlace).Methods(http.MethodPost)
	api.HandleFunc("/remove", s.handleRemove).Methods(http.MethodPost)
	api.HandleFunc("/start-round", s.handleStartRound).Methods(http.MethodPost)
	api.HandleFunc("/draft", s.handleDraft).Methods(http.MethodPost)
	api.HandleFunc("/round-end", s.handleRoundEnd).Methods(http.MethodPost)
	api.HandleFunc("/replay", s.handleReplay).Methods(http.MethodPost)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.table.State()
	s.reply(w, r, nil, state, err)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	events, state, err := s.table.NewGame()
	s.reply(w, r, events, state, err)
}

func (s *Server) handleBeginDistribution(w http.ResponseWriter, r *http.Request) {
	events, state, err := s.table.BeginDistribution()
	s.reply(w, r, events, state, err)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !s.decode(w, r, &req) {
		return
	}
	color, err := domain.ParseTileColor(req.Color)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events, state, err := s.table.Execute(app.PlaceTileCommand{FactoryID: req.FactoryID, Color: color})
	s.reply(w, r, events, state, err)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if !s.decode(w, r, &req) {
		return
	}
	events, state, err := s.table.Execute(app.RemoveTileCommand{FactoryID: req.FactoryID, Slot: req.Slot})
	s.reply(w, r, events, state, err)
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	events, state, err := s.table.StartRound()
	s.reply(w, r, events, state, err)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !s.decode(w, r, &req) {
		return
	}
	color, err := domain.ParseTileColor(req.Color)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events, state, err := s.table.Draft(req.FactoryID, color)
	s.reply(w, r, events, state, err)
}

func (s *Server) handleRoundEnd(w http.ResponseWriter, r *http.Request) {
	var req roundEndRequest
	if !s.decode(w, r, &req) {
		return
	}
	discarded := make([]domain.TileColor, 0, len(req.Discarded))
	for _, name := range req.Discarded {
		c, err := domain.ParseTileColor(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		discarded = append(discarded, c)
	}
	events, state, err := s.table.RoundEnded(discarded)
	s.reply(w, r, events, state, err)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	var req replayRequest
	if !s.decode(w, r, &req) {
		return
	}
	cmds, err := app.DecodeCommands(req.Commands)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events, state, err := s.table.Replay(cmds)
	s.reply(w, r, events, state, err)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Debug("bad request body", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, events []app.Event, state table.State, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Events: envelopes(events), State: table.StateFields(state, "")})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("table request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Info("table request refused", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, app.ErrNotIdle),
		errors.Is(err, app.ErrNotDistributing),
		errors.Is(err, app.ErrPrematureApply),
		errors.Is(err, table.ErrNoRound),
		errors.Is(err, table.ErrRoundInProgress),
		errors.Is(err, table.ErrRoundEndPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownColor),
		errors.Is(err, app.ErrUnknownCommand),
		errors.Is(err, table.ErrUnknownDiscard),
		errors.Is(err, memory.ErrIllegalMove):
		return http.StatusBadRequest
	case errors.Is(err, table.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func envelopes(events []app.Event) []envelope {
	out := make([]envelope, 0, len(events))
	for _, ev := range events {
		if env, ok := toEnvelope(ev); ok {
			out = append(out, env)
		}
	}
	return out
}

func toEnvelope(ev app.Event) (envelope, bool) {
	fields, ok := table.EventFields(ev)
	if !ok {
		return envelope{}, false
	}
	return envelope{Type: string(ev.Kind), Data: fields}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

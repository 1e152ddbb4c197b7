package table

import (
	"errors"
	"sync"

	"tiledraft/internal/app"
	"tiledraft/internal/domain"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("table closed")

// subscriberBuffer bounds how far a slow subscriber may lag before events are dropped for it.
const subscriberBuffer = 64

// command is one queued operation on the board.
type command struct {
	name string
	run  func(b *Board) ([]app.Event, error)
	rez  chan<- result
}

type result struct {
	events []app.Event
	state  State
	err    error
}

// Table serialises operator actions on a Board. A single goroutine owns the
// board; every action runs to completion before the next is taken.
type Table struct {
	cmds   chan *command
	done   chan struct{}
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[int]chan app.Event
	nextID int
	closed bool
}

// New starts the goroutine that owns board.
func New(board *Board, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Table{
		cmds:   make(chan *command),
		done:   make(chan struct{}),
		logger: logger,
		subs:   make(map[int]chan app.Event),
	}
	go t.loop(board)
	return t
}

func (t *Table) loop(board *Board) {
	for {
		select {
		case cmd := <-t.cmds:
			events, err := cmd.run(board)
			if err != nil {
				t.logger.Warn("table command failed", zap.String("command", cmd.name), zap.Error(err))
			} else {
				t.logger.Debug("table command", zap.String("command", cmd.name), zap.Int("events", len(events)))
			}
			// A replay can fail part way; what it already did is still published.
			t.publish(events)
			cmd.rez <- result{events: events, state: board.State(), err: err}
			close(cmd.rez)
		case <-t.done:
			return
		}
	}
}

func (t *Table) do(name string, run func(b *Board) ([]app.Event, error)) ([]app.Event, State, error) {
	c := make(chan result, 1)
	select {
	case t.cmds <- &command{name: name, run: run, rez: c}:
	case <-t.done:
		return nil, State{}, ErrClosed
	}
	r := <-c
	return r.events, r.state, r.err
}

// State returns a snapshot of the table.
func (t *Table) State() (State, error) {
	_, s, err := t.do("state", func(*Board) ([]app.Event, error) { return nil, nil })
	return s, err
}

func (t *Table) NewGame() ([]app.Event, State, error) {
	return t.do("new_game", func(b *Board) ([]app.Event, error) { return b.NewGame(), nil })
}

func (t *Table) BeginDistribution() ([]app.Event, State, error) {
	return t.do("begin_distribution", (*Board).BeginDistribution)
}

func (t *Table) Execute(cmd app.Command) ([]app.Event, State, error) {
	return t.do(string(cmd.Kind()), func(b *Board) ([]app.Event, error) { return b.Execute(cmd) })
}

func (t *Table) StartRound() ([]app.Event, State, error) {
	return t.do("start_round", (*Board).StartRound)
}

func (t *Table) Draft(factoryID int, color domain.TileColor) ([]app.Event, State, error) {
	return t.do("draft", func(b *Board) ([]app.Event, error) { return b.Draft(factoryID, color) })
}

func (t *Table) RoundEnded(discarded []domain.TileColor) ([]app.Event, State, error) {
	return t.do("round_ended", func(b *Board) ([]app.Event, error) { return b.RoundEnded(discarded) })
}

func (t *Table) Replay(cmds []app.Command) ([]app.Event, State, error) {
	return t.do("replay", func(b *Board) ([]app.Event, error) { return b.Replay(cmds) })
}

// Subscribe registers a listener for emitted events. The returned
// func unsubscribes and closes the channel.
func (t *Table) Subscribe() (<-chan app.Event, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan app.Event, subscriberBuffer)
	if t.closed {
		close(ch)
		return ch, func() {}
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if sub, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(sub)
			}
		})
	}
}

func (t *Table) publish(events []app.Event) {
	if len(events) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
				t.logger.Warn("subscriber lagging, event dropped", zap.Int("subscriber", id), zap.String("kind", string(ev.Kind)))
			}
		}
	}
}

// Close stops the owning goroutine and closes every subscription.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.done)
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}

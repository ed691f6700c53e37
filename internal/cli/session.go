package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/interaction"
	"github.com/matzehuels/digraph/pkg/owner"
	"github.com/matzehuels/digraph/pkg/scene"
	"github.com/matzehuels/digraph/pkg/view"
)

// Client event types.
const (
	eventPointerDown = "pointerdown"
	eventPointerMove = "pointermove"
	eventPointerUp   = "pointerup"
	eventWheel       = "wheel"
	eventKey         = "key"
	eventResize      = "resize"
)

// Server message types.
const (
	messageHello   = "hello"
	messagePatches = "patches"
	messageError   = "error"
)

// clientEvent is one input event sent by the browser. Coordinates are
// viewport pixels.
type clientEvent struct {
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Buttons int     `json:"buttons"`
	Shift   bool    `json:"shift"`
	DeltaY  float64 `json:"deltaY"`
	Key     string  `json:"key"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

func (e clientEvent) pointer() interaction.Event {
	return interaction.Event{
		Position: geometry.Point{X: e.X, Y: e.Y},
		Buttons:  e.Buttons,
		Shift:    e.Shift,
	}
}

// serverMessage is sent to the browser.
type serverMessage struct {
	Type    string        `json:"type"`
	Session string        `json:"session,omitempty"`
	Patches []scene.Patch `json:"patches,omitempty"`
	Code    errors.Code   `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
	// RetryAfterMS accompanies RATE_LIMITED errors.
	RetryAfterMS int64 `json:"retry_after_ms,omitempty"`
}

// =============================================================================
// Session
// =============================================================================

// session connects one browser to one view. All view access happens on the
// goroutine running [session.run].
type session struct {
	id      string
	key     string
	conn    *websocket.Conn
	view    *view.View
	owner   *owner.Owner
	size    *viewportSize
	limiter *rate.Limiter
	logger  *log.Logger
	metrics *metrics

	snapshots chan snapshot
	pending   []scene.Patch
}

// snapshot is a graph handed over by the owner, possibly from another
// session's goroutine.
type snapshot struct {
	nodes    []graph.Node
	edges    []graph.Edge
	selected graph.Selection
}

// SetGraph queues the snapshot for the session goroutine. Only the latest
// snapshot is kept.
func (s *session) SetGraph(nodes []graph.Node, edges []graph.Edge, selected graph.Selection) {
	snap := snapshot{nodes: nodes, edges: edges, selected: selected}
	for {
		select {
		case s.snapshots <- snap:
			return
		default:
		}
		select {
		case <-s.snapshots:
		default:
		}
	}
}

// viewportSize is the browser viewport as last reported by a resize event.
type viewportSize struct{ width, height float64 }

func (v *viewportSize) Size() (float64, float64) { return v.width, v.height }

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	o, err := s.owner(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess, err := s.newSession(conn, key, o)
	if err != nil {
		s.logger.Error("session setup failed", "error", err)
		return
	}
	s.metrics.connections.Inc()
	defer s.metrics.connections.Dec()

	sess.logger.Info("session started", "key", key)
	err = sess.run(r.Context())
	sess.logger.Info("session ended", "error", err)
}

func (s *server) newSession(conn *websocket.Conn, key string, o *owner.Owner) (*session, error) {
	id := uuid.NewString()
	sess := &session{
		id:        id,
		key:       key,
		conn:      conn,
		owner:     o,
		size:      &viewportSize{},
		limiter:   rate.NewLimiter(rate.Limit(s.cfg.Serve.EventsPerSecond), s.cfg.Serve.Burst),
		logger:    s.logger.With("session", id[:8]),
		metrics:   s.metrics,
		snapshots: make(chan snapshot, 1),
	}

	v, err := view.New(s.vc, o.Callbacks(),
		view.WithLogger(sess.logger),
		view.WithContainer(sess.size))
	if err != nil {
		return nil, err
	}
	sess.view = v
	v.Subscribe(func(p scene.Patch) { sess.pending = append(sess.pending, p) })
	return sess, nil
}

// run drives the view until the connection or ctx ends.
func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.view.Close()

	s.owner.Attach(s)
	defer s.owner.Detach(s)

	events := make(chan clientEvent)
	readErr := make(chan error, 1)
	go s.read(ctx, events, readErr)

	if err := s.conn.WriteJSON(serverMessage{Type: messageHello, Session: s.id, Patches: s.view.Snapshot()}); err != nil {
		return err
	}
	s.pending = s.pending[:0]

	ticker := time.NewTicker(view.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case ev := <-events:
			if err := s.handle(ev); err != nil {
				return err
			}
		case snap := <-s.snapshots:
			s.view.SetGraph(snap.nodes, snap.edges, snap.selected)
		case now := <-ticker.C:
			s.view.Tick(now)
		}
		if err := s.flush(); err != nil {
			return err
		}
	}
}

func (s *session) read(ctx context.Context, events chan<- clientEvent, readErr chan<- error) {
	for {
		var ev clientEvent
		if err := s.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			readErr <- err
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// handle routes one client event to the view.
func (s *session) handle(ev clientEvent) error {
	switch ev.Type {
	case eventPointerMove, eventWheel:
		if !s.limiter.Allow() {
			s.metrics.events.WithLabelValues(ev.Type, "dropped").Inc()
			if ev.Type == eventWheel {
				return s.sendError(&errors.RateLimitedError{Event: ev.Type, RetryAfter: s.retryAfter()})
			}
			return nil
		}
	}

	switch ev.Type {
	case eventPointerDown:
		s.view.PointerDown(ev.pointer())
	case eventPointerMove:
		s.view.PointerMove(ev.pointer())
	case eventPointerUp:
		s.view.PointerUp(ev.pointer())
	case eventWheel:
		s.view.Wheel(ev.pointer(), ev.DeltaY)
	case eventKey:
		s.view.KeyDown(ev.Key)
	case eventResize:
		s.size.width, s.size.height = ev.Width, ev.Height
	default:
		s.metrics.events.WithLabelValues("unknown", "rejected").Inc()
		return s.sendError(errors.New(errors.ErrCodeInvalidInput, "unknown event type %q", ev.Type))
	}
	s.metrics.events.WithLabelValues(ev.Type, "handled").Inc()
	return nil
}

// flush sends the patches collected since the last flush.
func (s *session) flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	msg := serverMessage{Type: messagePatches, Patches: s.pending}
	s.pending = nil
	return s.conn.WriteJSON(msg)
}

func (s *session) sendError(err error) error {
	msg := serverMessage{Type: messageError, Code: errors.GetCode(err), Message: errors.UserMessage(err)}
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) {
		msg.RetryAfterMS = rl.RetryAfter.Milliseconds()
	}
	return s.conn.WriteJSON(msg)
}

// retryAfter is how long the limiter takes to refill one event.
func (s *session) retryAfter() time.Duration {
	limit := float64(s.limiter.Limit())
	if limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / limit)
}

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/logging"
	"github.com/untangl/scoutlink/internal/logging/events"
	"github.com/untangl/scoutlink/internal/metrics"
	"github.com/untangl/scoutlink/internal/protocol"
)

// CommandFunc serves one request/response command. args is the raw JSON
// argument object and may be empty.
type CommandFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Server is the host-side end of the link. It accepts any number of UI
// surfaces, broadcasts host events to all of them, feeds their events into
// the inbound bus, and serves registered commands.
type Server struct {
	inbound  *channel.Bus
	upgrader websocket.Upgrader
	router   *mux.Router

	mu       sync.Mutex
	commands map[string]CommandFunc
	surfaces map[*surface]struct{}
}

var (
	_ channel.Emitter  = (*Server)(nil)
	_ channel.Listener = (*Server)(nil)
	_ http.Handler     = (*Server)(nil)
)

type surface struct {
	conn    *websocket.Conn
	remote  string
	writeMu sync.Mutex
}

// NewServer builds a host server whose surface events are emitted into
// inbound.
func NewServer(inbound *channel.Bus) *Server {
	s := &Server{
		inbound:  inbound,
		commands: make(map[string]CommandFunc),
		surfaces: make(map[*surface]struct{}),
	}
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleSocket).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	s.router = r
	return s
}

// Handle registers fn as the implementation of command name.
func (s *Server) Handle(name string, fn CommandFunc) {
	s.mu.Lock()
	s.commands[name] = fn
	s.mu.Unlock()
}

// Listen subscribes to events emitted by UI surfaces.
func (s *Server) Listen(name string, handler channel.Handler) {
	s.inbound.Listen(name, handler)
}

// Emit broadcasts an event to every connected surface. Surfaces that cannot
// be written to are dropped.
func (s *Server) Emit(name string, payload protocol.Payload) {
	data, err := protocol.Encode(protocol.EventFrame(name, payload))
	if err != nil {
		logging.Error(err)
		return
	}
	for _, sf := range s.snapshot() {
		if err := sf.write(data); err != nil {
			logging.Error(fmt.Errorf("emit %s to %s: %w", name, sf.remote, err))
			s.drop(sf)
		}
	}
}

// Close disconnects every surface.
func (s *Server) Close() {
	for _, sf := range s.snapshot() {
		s.drop(sf)
	}
}

// Surfaces returns the number of connected surfaces.
func (s *Server) Surfaces() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.surfaces)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error(fmt.Errorf("upgrade %s: %w", r.RemoteAddr, err))
		return
	}
	sf := &surface{conn: conn, remote: r.RemoteAddr}
	s.mu.Lock()
	s.surfaces[sf] = struct{}{}
	total := len(s.surfaces)
	s.mu.Unlock()
	metrics.SetSurfacesConnected(total)
	events.Host.SurfaceConnected(sf.remote, total)

	defer s.drop(sf)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := protocol.Decode(data)
		if err != nil {
			logging.Error(fmt.Errorf("surface %s: %w", sf.remote, err))
			continue
		}
		events.Link.Receive(frame.Kind, frame.Name, frame.ID)
		switch frame.Kind {
		case protocol.KindEvent:
			s.inbound.Emit(frame.Name, *frame.Payload)
		case protocol.KindInvoke:
			go s.serve(r.Context(), sf, frame)
		default:
			logging.Errorf("unexpected %s frame from surface %s", frame.Kind, sf.remote)
		}
	}
}

func (s *Server) serve(ctx context.Context, sf *surface, frame protocol.Frame) {
	s.mu.Lock()
	fn, ok := s.commands[frame.Name]
	s.mu.Unlock()

	var (
		result any
		err    error
	)
	if !ok {
		err = fmt.Errorf("unknown command %q", frame.Name)
	} else {
		result, err = fn(ctx, frame.Args)
	}
	metrics.RecordCommand(frame.Name, err)
	events.Host.Command(frame.Name, err)

	reply, encErr := protocol.ReplyFrame(frame.ID, result, err)
	if encErr != nil {
		reply, _ = protocol.ReplyFrame(frame.ID, nil, encErr)
	}
	data, encErr := protocol.Encode(reply)
	if encErr != nil {
		logging.Error(encErr)
		return
	}
	if err := sf.write(data); err != nil {
		logging.Error(fmt.Errorf("reply %s to %s: %w", frame.Name, sf.remote, err))
	}
}

func (s *Server) snapshot() []*surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*surface, 0, len(s.surfaces))
	for sf := range s.surfaces {
		out = append(out, sf)
	}
	return out
}

func (s *Server) drop(sf *surface) {
	s.mu.Lock()
	_, ok := s.surfaces[sf]
	delete(s.surfaces, sf)
	total := len(s.surfaces)
	s.mu.Unlock()
	if !ok {
		return
	}
	_ = sf.conn.Close()
	metrics.SetSurfacesConnected(total)
	events.Host.SurfaceDisconnected(sf.remote, total)
}

func (sf *surface) write(data []byte) error {
	sf.writeMu.Lock()
	defer sf.writeMu.Unlock()
	_ = sf.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return sf.conn.WriteMessage(websocket.TextMessage, data)
}

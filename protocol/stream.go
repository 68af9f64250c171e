package protocol

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mctscore/search"
)

// streamUpgrader mirrors AleutianLocal's handlers/websocket.go upgrader:
// origin checking is left to the host's reverse proxy, and buffers are
// generous since info events can carry a long PV plus verbose move stats.
var streamUpgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// streamEvent is one message pushed to every connected client: exactly one
// of Progress or BestMove is set, tagged with the search ID it belongs to
// so a client juggling overlapping go/stop cycles can tell them apart.
type streamEvent struct {
	SearchID  string          `json:"search_id"`
	Type      string          `json:"type"`
	Progress  *search.Progress `json:"progress,omitempty"`
	BestMove  *search.Result   `json:"best_move,omitempty"`
}

// Stream broadcasts a search's info/bestmove events to every connected
// websocket client, the spec's "streaming-output protocol reporting
// progress in real time" (§1) made concrete.
//
// Grounded on AleutianLocal's services/orchestrator/handlers/websocket.go:
// same gin.HandlerFunc-returning upgrade pattern and per-connection
// WriteJSON calls, generalized from a bidirectional chat protocol to a
// write-only fan-out (this adapter never needs to read from the client —
// commands arrive through AdminServer instead).
type Stream struct {
	log zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan streamEvent
}

// NewStream creates an empty broadcaster. Wire it to an Adapter by passing
// its OnProgress/OnBestMove methods to WithOnProgress/WithOnBestMove.
func NewStream(log zerolog.Logger) *Stream {
	return &Stream{
		log:     log,
		clients: make(map[*websocket.Conn]chan streamEvent),
	}
}

// OnProgress broadcasts one progress snapshot to every client. The
// Adapter's callbacks are set once at construction, so wire it there:
// NewAdapter(protocol.WithOnProgress(stream.OnProgress), ...).
func (s *Stream) OnProgress(searchID string, p search.Progress) {
	pc := p
	s.broadcast(streamEvent{SearchID: searchID, Type: "info", Progress: &pc})
}

// OnBestMove broadcasts a search's terminal result to every client.
func (s *Stream) OnBestMove(searchID string, r search.Result) {
	rc := r
	s.broadcast(streamEvent{SearchID: searchID, Type: "bestmove", BestMove: &rc})
}

func (s *Stream) broadcast(evt streamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, ch := range s.clients {
		select {
		case ch <- evt:
		default:
			// Slow client: drop the event rather than block every other
			// client or the search worker goroutine that triggered it.
			s.log.Warn().Msg("stream: dropping event for slow client")
			_ = conn
		}
	}
}

// Handler returns a gin.HandlerFunc that upgrades the connection and
// streams events to it until the client disconnects.
func (s *Stream) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := streamUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			s.log.Error().Err(err).Msg("stream: upgrade failed")
			return
		}
		defer conn.Close()

		ch := make(chan streamEvent, 64)
		s.mu.Lock()
		s.clients[conn] = ch
		s.mu.Unlock()

		// remove unregisters conn under the same lock broadcast() uses,
		// so once it returns no broadcast can still be sending on ch —
		// only then is it safe to close it.
		remove := func() {
			s.mu.Lock()
			if _, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				close(ch)
			}
			s.mu.Unlock()
		}
		defer remove()

		// A connected client never sends anything meaningful, but reading
		// is how gorilla/websocket notices the peer went away.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					remove()
					return
				}
			}
		}()

		for evt := range ch {
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}
}

// ClientCount reports how many clients are currently connected.
func (s *Stream) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

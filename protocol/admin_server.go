package protocol

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mctscore/position"
	"mctscore/search"
)

// AdminServer is a JSON-over-HTTP debug/admin API in front of an Adapter,
// for operators to drive a search and read its options/status without a
// UCI-speaking GUI.
//
// Grounded on foochu-bgweb-api's main.go: gin.Default(), a versioned route
// group, and BindJSON/c.JSON request handling — generalized from its
// single getmoves endpoint into the host command surface of spec.md §6.
// PositionCodec bridges the admin server's JSON move indices back to real
// position.Move/position.Position values. FEN parsing stays a Non-goal;
// the host supplies whatever board it's actually using (package chess in
// this repo) so /set_position never needs to understand chess rules
// itself.
type PositionCodec interface {
	// NewGame returns the starting position for a fresh game.
	NewGame() position.Position
	// DecodeMove resolves a move index (position.Move.Index()) against
	// pos's legal moves.
	DecodeMove(pos position.Position, index uint16) (position.Move, error)
}

type AdminServer struct {
	adapter *Adapter
	codec   PositionCodec
	engine  *gin.Engine
}

// NewAdminServer wires every spec.md §6 command onto a gin route group
// under /api/v1, plus a Prometheus /metrics endpoint (served by the same
// server rather than a separate one, per SPEC_FULL.md §9).
func NewAdminServer(adapter *Adapter, codec PositionCodec) *AdminServer {
	s := &AdminServer{adapter: adapter, codec: codec}

	r := gin.Default()
	v1 := r.Group("/api/v1")
	{
		v1.POST("/new_game", newGameHandler(adapter))
		v1.POST("/set_position", setPositionHandler(adapter, codec))
		v1.POST("/go", goHandler(adapter))
		v1.POST("/stop", stopHandler(adapter))
		v1.POST("/ensure_ready", ensureReadyHandler(adapter))
		v1.POST("/set_option", setOptionHandler(adapter))
		v1.GET("/status", statusHandler(adapter))
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = r
	return s
}

// Run starts the server; blocks until it exits or errors, same call shape
// as the teacher's gin.Engine.Run.
func (s *AdminServer) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the underlying http.Handler, e.g. for httptest.Server.
func (s *AdminServer) Handler() http.Handler { return s.engine }

type setOptionRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

func setOptionHandler(a *Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setOptionRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := a.SetOption(req.Name, req.Value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	}
}

func newGameHandler(a *Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.NewGame(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	}
}

// setPositionRequest mirrors spec.md §6's set_position(fen, move-list),
// minus the FEN: the position always starts from a fresh game (the
// reference board has no FEN parser, which is fine — board text framing
// is a Non-goal) and Moves is the sequence of move indices applied since.
type setPositionRequest struct {
	Moves []uint16 `json:"moves"`
}

func setPositionHandler(a *Adapter, codec PositionCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setPositionRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if codec == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "protocol: no position codec configured"})
			return
		}
		pos := codec.NewGame()
		moves := make([]position.Move, 0, len(req.Moves))
		for _, idx := range req.Moves {
			mv, err := codec.DecodeMove(pos, idx)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			moves = append(moves, mv)
			pos = pos.Play(mv)
		}
		if err := a.SetPosition(pos, moves); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	}
}

type goRequest struct {
	Playouts    int   `json:"playouts"`
	Visits      int   `json:"visits"`
	MoveTimeMS  int64 `json:"move_time_ms"`
	WhiteTimeMS int64 `json:"white_time_ms"`
	BlackTimeMS int64 `json:"black_time_ms"`
	Infinite    bool  `json:"infinite"`
}

type goResponse struct {
	SearchID string `json:"search_id"`
}

func goHandler(a *Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req goRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		limits := search.Limits{
			Playouts: req.Playouts,
			Visits:   req.Visits,
			MoveTime: time.Duration(req.MoveTimeMS) * time.Millisecond,
			WhiteTime: time.Duration(req.WhiteTimeMS) * time.Millisecond,
			BlackTime: time.Duration(req.BlackTimeMS) * time.Millisecond,
			Infinite: req.Infinite,
		}
		id, err := a.Go(limits)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, goResponse{SearchID: id})
	}
}

func stopHandler(a *Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		a.Stop()
		c.Status(http.StatusOK)
	}
}

func ensureReadyHandler(a *Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.EnsureReady(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	}
}

type statusResponse struct {
	Running bool              `json:"running"`
	PV      []string          `json:"pv,omitempty"`
	Moves   []search.MoveStat `json:"moves,omitempty"`
}

func statusHandler(a *Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		running := a.IsRunning()
		resp := statusResponse{Running: running}
		for _, mv := range a.PV(64) {
			resp.PV = append(resp.PV, mv.String(false))
		}
		resp.Moves = a.VerboseMoveStats()
		c.JSON(http.StatusOK, resp)
	}
}

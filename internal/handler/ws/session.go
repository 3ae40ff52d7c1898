// Package ws serves live analysis sessions over WebSocket. Each upload on a session
// supersedes the previous one: its run is cancelled and its report is never sent.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"SeriesPulse/internal/domain/models"
	"SeriesPulse/internal/service/ratelimit"
	"SeriesPulse/internal/services/ingest"
	"SeriesPulse/internal/usecase"
	xhttp "SeriesPulse/pkg/http"
	applogger "SeriesPulse/pkg/logger"
)

// Message types.
const (
	TypeAnalyze = "analyze"
	TypeCancel  = "cancel"
	TypeReport  = "report"
	TypeError   = "error"
)

// Inbound is a client message. Points and CSV are alternatives; CSV wins when both are set.
type Inbound struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	CSV  string `json:"csv,omitempty"`
	models.AnalyzeRequest
}

// Outbound is a server message.
type Outbound struct {
	Type   string                  `json:"type"`
	ID     string                  `json:"id,omitempty"`
	Data   *models.AnalysisReport  `json:"data,omitempty"`
	Error  string                  `json:"error,omitempty"`
	Errors []xhttp.ValidationError `json:"errors,omitempty"`
}

type Config struct {
	ReadLimit    int64
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// Handler upgrades GET /ws and runs one session per connection.
type Handler struct {
	logger   *applogger.Logger
	uc       *usecase.AnalysisUseCase
	limiter  *ratelimit.Limiter
	cfg      Config
	upgrader websocket.Upgrader
}

func NewHandler(logger *applogger.Logger, uc *usecase.AnalysisUseCase, limiter *ratelimit.Limiter, cfg Config) *Handler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Handler{
		logger:  logger,
		uc:      uc,
		limiter: limiter,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

func (h *Handler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}
	s := &session{
		h:      h,
		conn:   conn,
		client: c.RealIP(),
		out:    make(chan Outbound, 8),
		logger: h.logger.With(applogger.String("client", c.RealIP())),
	}
	s.run(c.Request().Context())
	return nil
}

type session struct {
	h      *Handler
	conn   *websocket.Conn
	client string
	out    chan Outbound
	logger *applogger.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var writers sync.WaitGroup
	writers.Add(1)
	go func() {
		defer writers.Done()
		s.writeLoop(ctx)
	}()

	s.readLoop(ctx)

	s.supersede()
	cancel()
	writers.Wait()
	_ = s.conn.Close()
	s.logger.Debug("websocket session closed")
}

func (s *session) readLoop(ctx context.Context) {
	if s.h.cfg.ReadLimit > 0 {
		s.conn.SetReadLimit(s.h.cfg.ReadLimit)
	}
	for {
		_, b, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", applogger.Error(err))
			}
			return
		}
		var msg Inbound
		if err := json.Unmarshal(b, &msg); err != nil {
			s.send(ctx, Outbound{Type: TypeError, Error: "invalid message: " + err.Error()})
			continue
		}
		switch msg.Type {
		case TypeAnalyze:
			s.analyze(ctx, msg)
		case TypeCancel:
			s.supersede()
		default:
			s.send(ctx, Outbound{Type: TypeError, ID: msg.ID, Error: "unknown message type " + msg.Type})
		}
	}
}

// writeLoop owns every write on the connection, pings included. A failed write closes
// the connection so the read loop returns.
func (s *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.h.cfg.WriteTimeout))
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.h.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("websocket ping failed", applogger.Error(err))
				_ = s.conn.Close()
				return
			}
		case m := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.h.cfg.WriteTimeout))
			if err := s.conn.WriteJSON(m); err != nil {
				s.logger.Debug("websocket write failed", applogger.Error(err))
				_ = s.conn.Close()
				return
			}
		}
	}
}

func (s *session) send(ctx context.Context, m Outbound) {
	select {
	case s.out <- m:
	case <-ctx.Done():
	}
}

// supersede cancels the current run, if any, and returns the next run's sequence number.
func (s *session) supersede() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	return s.seq
}

func (s *session) current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq == seq
}

func (s *session) analyze(ctx context.Context, msg Inbound) {
	seq := s.supersede()

	req := msg.AnalyzeRequest
	if verrs := xhttp.ValidateStruct(ctx, &req); len(verrs) > 0 {
		s.send(ctx, Outbound{Type: TypeError, ID: msg.ID, Error: "invalid request", Errors: verrs})
		return
	}
	params := usecase.AnalyzeParams{Steps: req.Steps, AI: req.AI, Professional: req.Professional}
	if strings.TrimSpace(msg.CSV) != "" {
		series, rep, err := ingest.ParseCSV(strings.NewReader(msg.CSV))
		if err != nil {
			s.send(ctx, Outbound{Type: TypeError, ID: msg.ID, Error: err.Error()})
			return
		}
		params.Series, params.Ingest = series, &rep
	} else {
		series, rep := ingest.FromPoints(req.Points)
		params.Series, params.Ingest = series, &rep
	}
	if (params.AI || params.Professional) && s.h.limiter != nil && !s.h.limiter.Allow(s.client) {
		s.send(ctx, Outbound{Type: TypeError, ID: msg.ID, Error: "too many collaborator requests"})
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.seq != seq {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		rep, err := s.h.uc.Analyze(runCtx, params)
		if runCtx.Err() != nil || !s.current(seq) {
			return
		}
		if err != nil {
			if !errors.Is(err, usecase.ErrTooManyPoints) {
				s.logger.Error("websocket analysis failed", applogger.Error(err))
			}
			s.send(ctx, Outbound{Type: TypeError, ID: msg.ID, Error: err.Error()})
			return
		}
		s.send(ctx, Outbound{Type: TypeReport, ID: msg.ID, Data: rep.Rounded()})
	}()
}

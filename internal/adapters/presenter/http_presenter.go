package presenter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/config"
	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/extract"
	"github.com/mikey/phish-interrogator/internal/ports"
)

var _ ports.Presenter = (*HTTPPresenter)(nil)

type inspectRequest struct {
	PageID string `json:"page_id" binding:"required"`
	HTML   string `json:"html"`
}

type answerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// HTTPPresenter serves the interrogation overlay to host pages over HTTP
type HTTPPresenter struct {
	service   *core.InterrogationService
	extractor *extract.Extractor
	logger    *zap.Logger
	cfg       config.ServerConfig
	registry  *registry
	engine    *gin.Engine
	server    *http.Server
	addr      string
}

// NewHTTPPresenter creates the overlay API
func NewHTTPPresenter(
	service *core.InterrogationService,
	extractor *extract.Extractor,
	logger *zap.Logger,
	cfg config.ServerConfig,
) *HTTPPresenter {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	p := &HTTPPresenter{
		service:   service,
		extractor: extractor,
		logger:    logger,
		cfg:       cfg,
		registry:  newRegistry(),
		engine:    gin.New(),
	}
	p.engine.Use(gin.Recovery(), p.requestLogger())
	if policy, ok := corsConfig(cfg.AllowedOrigins); ok {
		p.engine.Use(cors.New(policy))
	}
	p.routes()
	return p
}

// corsConfig lets host pages on the allowed origins call the API.
// No origins means no cross-origin access.
func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}

	policy := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		policy.AllowAllOrigins = true
	} else {
		policy.AllowOrigins = origins
	}
	return policy, true
}

func (p *HTTPPresenter) routes() {
	p.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := p.engine.Group("/api/v1")
	api.POST("/inspect", p.inspect)
	api.GET("/sessions/:id", p.getSession)
	api.GET("/sessions/:id/overlay", p.getOverlay)
	api.POST("/sessions/:id/answers", p.answer)
	api.POST("/sessions/:id/actions/:action", p.act)
}

// Handler exposes the routes for embedding and tests
func (p *HTTPPresenter) Handler() http.Handler {
	return p.engine
}

// Start binds the listen address and serves in the background.
// A bind failure is returned rather than logged.
func (p *HTTPPresenter) Start() error {
	listener, err := net.Listen("tcp", p.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", p.cfg.ListenAddress, err)
	}

	p.server = &http.Server{
		Handler:           p.engine,
		ReadHeaderTimeout: p.cfg.ReadTimeout,
		ReadTimeout:       p.cfg.ReadTimeout,
	}
	p.addr = listener.Addr().String()

	p.logger.Info("Overlay server starting", zap.String("address", p.addr))

	go func() {
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("Overlay server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded
func (p *HTTPPresenter) Addr() string {
	return p.addr
}

// Stop shuts the server down, waiting briefly for in-flight requests
func (p *HTTPPresenter) Stop() error {
	if p.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.server.Shutdown(ctx)
}

func (p *HTTPPresenter) inspect(c *gin.Context) {
	if p.cfg.MaxPageSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, p.cfg.MaxPageSize)
	}

	var req inspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "page_id is required"})
		return
	}

	attrs := p.extractor.ExtractString(req.HTML)
	pending := p.service.BeginAsync(c.Request.Context(), attrs)

	select {
	case <-pending.Done():
	case <-c.Request.Context().Done():
		return
	}

	session := pending.Session()
	if session == nil {
		p.registry.dropPage(req.PageID)
		c.Status(http.StatusNoContent)
		return
	}

	sl := p.registry.put(req.PageID, session)
	c.JSON(http.StatusCreated, newSessionView(sl.pageID, session))
}

func (p *HTTPPresenter) lookup(c *gin.Context) (*slot, bool) {
	sl, ok := p.registry.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "session not found"})
	}
	return sl, ok
}

func (p *HTTPPresenter) getSession(c *gin.Context) {
	sl, ok := p.lookup(c)
	if !ok {
		return
	}
	sl.mu.Lock()
	view := newSessionView(sl.pageID, sl.session)
	sl.mu.Unlock()

	c.JSON(http.StatusOK, view)
}

func (p *HTTPPresenter) getOverlay(c *gin.Context) {
	sl, ok := p.lookup(c)
	if !ok {
		return
	}
	sl.mu.Lock()
	view := newSessionView(sl.pageID, sl.session)
	sl.mu.Unlock()

	fragment, err := renderOverlay(view)
	if err != nil {
		p.logger.Error("Failed to render overlay", zap.Error(err), zap.String("session_id", view.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to render overlay"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", fragment)
}

func (p *HTTPPresenter) answer(c *gin.Context) {
	sl, ok := p.lookup(c)
	if !ok {
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "answer is required"})
		return
	}

	sl.mu.Lock()
	err := sl.session.Answer(core.Answer(req.Answer))
	view := newSessionView(sl.pageID, sl.session)
	sl.mu.Unlock()

	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (p *HTTPPresenter) act(c *gin.Context) {
	sl, ok := p.lookup(c)
	if !ok {
		return
	}

	action, err := core.ParseAction(c.Param("action"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	sl.mu.Lock()
	ack, err := p.service.Remediate(c.Request.Context(), sl.session, action)
	state := sl.session.State()
	sl.mu.Unlock()

	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	if state == core.StateResolved {
		p.registry.remove(sl.session.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"acknowledgement": ack,
		"state":           state.String(),
	})
}

// statusFor maps session errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidAnswer), errors.Is(err, core.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotAwaitingAnswer),
		errors.Is(err, core.ErrNotInSummary),
		errors.Is(err, core.ErrSessionResolved):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (p *HTTPPresenter) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		p.logger.Debug("Handled overlay request",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

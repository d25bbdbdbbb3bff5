// Package server exposes an Explainer over HTTP.
//
//	GET  /health      liveness and explainer settings
//	POST /v1/explain  main effects for the posted rows
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/marginal"
	"github.com/YuminosukeSato/marginal/pkg/errors"
	"github.com/YuminosukeSato/marginal/pkg/log"
)

const (
	defaultRequestTimeout = 30 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// Server serves main effects computed by one Explainer.
type Server struct {
	explainer *marginal.Explainer
	nFeatures int

	limiter        *rate.Limiter
	requestTimeout time.Duration
	logger         log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit admits at most rps explain requests per second with the
// given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRequestTimeout bounds a single explain request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

// WithLogger sets the request logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New returns a Server for e. nFeatures is the number of columns of the
// explainer's background.
func New(e *marginal.Explainer, nFeatures int, opts ...Option) (*Server, error) {
	if e == nil {
		return nil, errors.NewValidationError("explainer", "must not be nil", nil)
	}
	if nFeatures <= 0 {
		return nil, errors.NewValidationError("n_features", "must be positive", nFeatures)
	}
	s := &Server{
		explainer:      e,
		nFeatures:      nFeatures,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("server")
	}
	return s, nil
}

// ExplainRequest is the body of POST /v1/explain.
type ExplainRequest struct {
	Rows      [][]float64 `json:"rows" binding:"required"`
	Features  string      `json:"features,omitempty"`
	BatchSize int         `json:"batch_size,omitempty"`
}

// ExplainResponse is returned by POST /v1/explain.
type ExplainResponse struct {
	Representation    string      `json:"representation"`
	FeatureDependence string      `json:"feature_dependence"`
	Features          []string    `json:"features"`
	Effects           [][]float64 `json:"effects"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/health", s.health)

	v1 := r.Group("/v1")
	v1.Use(s.rateLimit())
	v1.POST("/explain", s.explain)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"representation":     s.explainer.Representation().String(),
		"feature_dependence": s.explainer.FeatureDependence().String(),
		"nsamples":           s.explainer.NSamples(),
		"n_features":         s.nFeatures,
	})
}

func (s *Server) explain(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	X, err := s.matrix(req.Rows)
	if err != nil {
		s.fail(c, err)
		return
	}

	features := marginal.AllFeatures(s.nFeatures)
	if req.Features != "" {
		if features, err = marginal.ParseFeatureIndices(req.Features); err != nil {
			s.fail(c, err)
			return
		}
	}
	opts := []marginal.ExplainOption{marginal.WithFeatureIndices(features...)}
	if req.BatchSize != 0 {
		opts = append(opts, marginal.WithBatchSize(req.BatchSize))
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()
	effects, err := s.explainer.ExplainContext(ctx, X, opts...)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := ExplainResponse{
		Representation:    s.explainer.Representation().String(),
		FeatureDependence: s.explainer.FeatureDependence().String(),
		Features:          make([]string, len(features)),
		Effects:           make([][]float64, len(req.Rows)),
	}
	for i, f := range features {
		resp.Features[i] = f.String()
	}
	for i := range resp.Effects {
		resp.Effects[i] = mat.Row(nil, i, effects)
	}
	c.JSON(http.StatusOK, resp)
}

// matrix checks that rows is a non-empty rectangle of nFeatures columns.
func (s *Server) matrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, errors.Mark(errors.NewValidationError("rows", "must not be empty", 0), errors.ErrEmptyData)
	}
	X := mat.NewDense(len(rows), s.nFeatures, nil)
	for i, row := range rows {
		if len(row) != s.nFeatures {
			return nil, errors.NewDimensionError("server.explain", s.nFeatures, len(row), 1)
		}
		X.SetRow(i, row)
	}
	return X, nil
}

// fail maps library errors onto HTTP status codes.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var (
		ve *errors.ValidationError
		de *errors.DimensionError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &de):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// クライアント切断
		status = 499
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("explain request failed", err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server: shutdown")
	}
	return nil
}

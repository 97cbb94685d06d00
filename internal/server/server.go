// Package server exposes conversion over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"gla2smd/internal/convert"
	"gla2smd/internal/gla"
	"gla2smd/internal/inspect"
	"gla2smd/internal/logger"
)

const headerRequestID = "X-Request-ID"

// Config holds server settings.
type Config struct {
	Addr    string
	Convert convert.Options
	// MaxBodySize caps the request body and, for zstd bodies, the
	// decompressed image. Zero means 64 MiB.
	MaxBodySize int64
	// MaxOutputLines caps the SMD lines one conversion may produce, counted
	// as selected frames × (bones + 1). Zero means 4M.
	MaxOutputLines int64
	ReadTimeout    time.Duration
}

// Server converts GLA request bodies.
type Server struct {
	cfg Config
	log logger.Logger
}

func New(cfg Config, log logger.Logger) *Server {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 64 << 20
	}
	if cfg.MaxOutputLines <= 0 {
		cfg.MaxOutputLines = 4 << 20
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{cfg: cfg, log: log}
}

// Register mounts the API routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/convert", s.handleConvert)
	e.POST("/v1/inspect", s.handleInspect)
}

// Handler builds an echo instance with logging and recovery middleware.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogRequestID: true,
		LogStatus:    true,
		HandleError:  true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				s.log.Error("request error", append(attrs, "error", v.Error)...)
				return nil
			}
			s.log.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	s.Register(e)
	return e
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log.Info("starting server", "address", s.cfg.Addr)
	sc := echo.StartConfig{
		Address: s.cfg.Addr,
		BeforeServeFunc: func(srv *http.Server) error {
			if s.cfg.ReadTimeout > 0 {
				srv.ReadHeaderTimeout = s.cfg.ReadTimeout
			}
			return nil
		},
	}
	return sc.Start(ctx, s.Handler())
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConvert(c *echo.Context) error {
	id := requestID(c)
	opts, err := s.options(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	}
	anim, _, err := s.decodeBody(c, opts)
	if err != nil {
		return s.writeDecodeError(c, id, err)
	}
	if err := s.checkOutputSize(anim, opts); err != nil {
		return s.writeDecodeError(c, id, err)
	}
	text, err := convert.Render(anim, opts)
	if err != nil {
		return s.writeDecodeError(c, id, err)
	}

	s.log.Debug("converted", "request_id", id, "frames", anim.NumFrames(), "bones", anim.NumBones(), "bytes", len(text))
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", text)
}

func (s *Server) handleInspect(c *echo.Context) error {
	id := requestID(c)
	opts, err := s.options(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	}
	// Inspecting unknown formats is the point of the endpoint.
	opts.AllowUnknownFormat = true
	anim, size, err := s.decodeBody(c, opts)
	if err != nil {
		return s.writeDecodeError(c, id, err)
	}
	return c.JSON(http.StatusOK, inspect.Summarize(anim, size))
}

// options reads per-request overrides from the query string.
func (s *Server) options(c *echo.Context) (convert.Options, error) {
	opts := s.cfg.Convert

	if v := c.QueryParam("encoding"); v != "" {
		opts.Decode.NameEncoding = v
	}
	for name, dst := range map[string]*bool{
		"duplicate_y": &opts.Write.DuplicateY,
		"force":       &opts.AllowUnknownFormat,
		"strict":      &opts.Decode.StrictOffsets,
	} {
		if v := c.QueryParam(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, fmt.Errorf("%s: %w", name, err)
			}
			*dst = b
		}
	}
	for name, dst := range map[string]*int{
		"first_frame": &opts.Build.FirstFrame,
		"num_frames":  &opts.Build.NumFrames,
	} {
		if v := c.QueryParam(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return opts, fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}
	return opts, nil
}

var (
	errBodyTooLarge   = errors.New("request body too large")
	errOutputTooLarge = errors.New("conversion output too large")
)

// decodeBody reads the whole request body, plain or zstd-compressed GLA, and
// returns the decoded animation with the body size.
func (s *Server) decodeBody(c *echo.Context, opts convert.Options) (*gla.Animation, int64, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, s.cfg.MaxBodySize+1))
	if err != nil {
		return nil, 0, err
	}
	if int64(len(body)) > s.cfg.MaxBodySize {
		return nil, 0, fmt.Errorf("%w: limit %d bytes", errBodyTooLarge, s.cfg.MaxBodySize)
	}
	raw, err := gla.UnpackLimit(body, s.cfg.MaxBodySize)
	if err != nil {
		return nil, 0, err
	}
	anim, err := convert.Load(raw, opts)
	if err != nil {
		return nil, 0, err
	}
	return anim, int64(len(raw)), nil
}

// checkOutputSize rejects conversions whose selected frame range would
// render more than MaxOutputLines lines.
func (s *Server) checkOutputSize(anim *gla.Animation, opts convert.Options) error {
	_, count, err := opts.Build.Range(anim.NumFrames())
	if err != nil {
		return err
	}
	lines := int64(count) * int64(anim.NumBones()+1)
	if lines > s.cfg.MaxOutputLines {
		return fmt.Errorf("%w: %d frames of %d bones, limit %d lines",
			errOutputTooLarge, count, anim.NumBones(), s.cfg.MaxOutputLines)
	}
	return nil
}

func (s *Server) writeDecodeError(c *echo.Context, id string, err error) error {
	status, errType := http.StatusBadRequest, "invalid_request_error"
	switch {
	case errors.Is(err, errBodyTooLarge), errors.Is(err, gla.ErrTooLarge):
		status, errType = http.StatusRequestEntityTooLarge, "request_too_large"
	case errors.Is(err, errOutputTooLarge):
		status, errType = http.StatusRequestEntityTooLarge, "output_too_large"
	case errors.Is(err, gla.ErrUnrecognizedFormat):
		status, errType = http.StatusUnsupportedMediaType, "unrecognized_format"
	case errors.Is(err, gla.ErrStreamExhausted), errors.Is(err, gla.ErrMalformedOffset):
		status, errType = http.StatusUnprocessableEntity, "malformed_input"
	case errors.Is(err, gla.ErrIndexOutOfRange):
		status, errType = http.StatusBadRequest, "out_of_range"
	}
	s.log.Warn("request failed", "request_id", id, "status", status, "error", err)
	return writeError(c, status, errType, err.Error())
}

func requestID(c *echo.Context) string {
	id := c.Request().Header.Get(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Response().Header().Set(headerRequestID, id)
	return id
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": msg,
		},
	})
}

// Package server exposes calc over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/zephyrtronium/calc"
)

// maxBody bounds request bodies.
const maxBody = 64 << 10

// Server provides the HTTP interface to the calculator.
type Server struct {
	addr    string
	log     *slog.Logger
	router  *httprouter.Router
	handler http.Handler
	server  *http.Server
}

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New creates a server. If log is nil, the default logger is used.
func New(opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		addr:   opts.Addr,
		log:    log,
		router: httprouter.New(),
	}
	s.setupRoutes()
	s.handler = s.logRequests(s.router)
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler returns the server's handler for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens and serves until Stop is called. It returns nil after a
// graceful stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("Starting server", slog.String("addr", ln.Addr().String()))
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down, waiting for active requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Stopping server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.router.POST("/calculate", s.handleCalculate)
	s.router.GET("/operators", s.handleOperators)
	s.router.GET("/health", s.handleHealth)
}

type calculateRequest struct {
	Expression string `json:"expression"`
}

type calculateResponse struct {
	Expression string   `json:"expression"`
	Result     *float64 `json:"result,omitempty"`
	Text       string   `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Pos   int    `json:"pos,omitempty"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req calculateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.log.InfoContext(r.Context(), "Bad request", slog.String("error", err.Error()))
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "request"})
		return
	}
	v, err := calc.Calculate(req.Expression)
	if err != nil {
		status, kind := http.StatusInternalServerError, "internal"
		switch {
		case errors.Is(err, calc.ErrSyntax):
			status, kind = http.StatusBadRequest, "syntax"
		case errors.Is(err, calc.ErrUnsupported):
			status, kind = http.StatusUnprocessableEntity, "unsupported"
		}
		resp := errorResponse{Error: err.Error(), Kind: kind}
		var ie calc.InputError
		if errors.As(err, &ie) {
			resp.Pos = ie.Pos()
		}
		s.log.InfoContext(r.Context(), "Calculation failed",
			slog.String("expression", req.Expression),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		s.writeJSON(w, status, resp)
		return
	}
	resp := calculateResponse{
		Expression: req.Expression,
		Text:       strconv.FormatFloat(v, 'g', -1, 64),
	}
	if !math.IsInf(v, 0) && !math.IsNaN(v) {
		resp.Result = &v
	}
	s.log.DebugContext(r.Context(), "Calculated",
		slog.String("expression", req.Expression),
		slog.Float64("result", v),
	)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOperators(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ops := strings.Split(calc.SupportedOperators, "")
	s.log.DebugContext(r.Context(), "Listing operators")
	s.writeJSON(w, http.StatusOK, map[string][]string{"operators": ops})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusWriter records the status code written through it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// logRequests logs every request at debug level after it is served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.DebugContext(r.Context(), "Request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

// writeJSON writes v as the response body. The status is already sent by the
// time encoding can fail, so the error is only logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("Writing response failed", slog.Int("status", status), slog.String("error", err.Error()))
	}
}

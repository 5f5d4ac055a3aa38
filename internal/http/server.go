package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/calcmcp/calcmcp/internal/core"
	"github.com/calcmcp/calcmcp/internal/mcp"
	"github.com/calcmcp/calcmcp/internal/telemetry"
)

const (
	transportName = "streamablehttp"
	frameworkName = "net/http"
)

type BuildInfo struct {
	Version   string
	GitCommit string
	BuildTime string
}

type Server struct {
	dispatcher *mcp.Dispatcher
	metrics    *telemetry.Metrics
	srv        *http.Server
	logger     *slog.Logger
	build      BuildInfo
}

const maxRequestBodyBytes = 1 << 20

// NewServer wires the MCP endpoint and the operational routes. metrics may
// be nil, in which case GET /metrics is not registered.
func NewServer(addr string, dispatcher *mcp.Dispatcher, metrics *telemetry.Metrics, logger *slog.Logger, build BuildInfo) *Server {
	s := &Server{
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		build:      build,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("POST /mcp", s.handleMCP)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      withLogging(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server starting", "addr", ln.Addr().String())
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"health":  "GET /health",
		"mcp":     "POST /mcp",
		"version": "GET /version",
	}
	if s.metrics != nil {
		endpoints["metrics"] = "GET /metrics"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      mcp.ServerName,
		"version":   mcp.ServerVersion,
		"transport": transportName,
		"framework": frameworkName,
		"endpoints": endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"transport": transportName,
		"framework": frameworkName,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    s.build.Version,
		"git_commit": s.build.GitCommit,
		"build_time": s.build.BuildTime,
	})
}

// handleMCP serves one JSON-RPC request per POST. Protocol-level failures
// travel inside a 200 envelope; only bodies that cannot be read as a
// request are rejected at the HTTP layer.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRPCRequest(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.logger.Warn("rejecting mcp request", "err", err)
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := s.dispatcher.Dispatch(r.Context(), req, mcp.ShapeNamed)
	writeJSON(w, http.StatusOK, resp)
}

// decodeRPCRequest enforces the request model: an object with a string
// method, an integer or null id and an object or null params.
func decodeRPCRequest(w http.ResponseWriter, r *http.Request) (mcp.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return mcp.Request{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(core.ReplaceNonFiniteLiterals(body), &fields); err != nil {
		return mcp.Request{}, fmt.Errorf("invalid json: %w", err)
	}
	if fields == nil {
		return mcp.Request{}, errors.New("request body must be a JSON object")
	}

	req := mcp.Request{JSONRPC: mcp.JSONRPCVersion}
	if raw, ok := fields["jsonrpc"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &req.JSONRPC); err != nil {
			return mcp.Request{}, errors.New("jsonrpc must be a string")
		}
	}

	raw, ok := fields["method"]
	if !ok {
		return mcp.Request{}, errors.New("method is required")
	}
	if err := json.Unmarshal(raw, &req.Method); err != nil || isNull(raw) {
		return mcp.Request{}, errors.New("method must be a string")
	}

	if raw, ok := fields["id"]; ok && !isNull(raw) {
		if _, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64); err != nil {
			return mcp.Request{}, errors.New("id must be an integer or null")
		}
		req.ID = raw
	}

	if raw, ok := fields["params"]; ok && !isNull(raw) {
		if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
			return mcp.Request{}, errors.New("params must be an object or null")
		}
		req.Params = raw
	}
	return req, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

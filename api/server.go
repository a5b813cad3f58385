package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	serverShutdownWait = 5 * time.Second
	serverTimeout      = 60 * time.Second
	maxBodyBytes       = 1 << 20
	requestIDHeader    = "X-Request-Id"
)

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// graphqlHandler serves POST with a JSON or application/graphql body and
// GET with query parameters. A GET carrying a JSON body is also accepted.
type graphqlHandler struct {
	schema *graphql.Schema
	log    *slog.Logger
}

func (h *graphqlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "must provide query string")
		return
	}

	resp := h.schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)
	if len(resp.Errors) > 0 {
		h.log.Warn("graphql errors",
			"request_id", r.Header.Get(requestIDHeader),
			"errors", len(resp.Errors),
			"first", resp.Errors[0].Message)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("writing graphql response", "error", err)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (graphqlRequest, error) {
	var req graphqlRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return req, errors.Wrap(err, "decoding variables")
			}
		}
		if req.Query != "" {
			return req, nil
		}
		err := json.NewDecoder(body).Decode(&req)
		if err != nil && err != io.EOF {
			return req, errors.Wrap(err, "decoding body")
		}
		return req, nil

	case http.MethodPost:
		ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if ct == "application/graphql" {
			raw, err := io.ReadAll(body)
			if err != nil {
				return req, errors.Wrap(err, "reading body")
			}
			req.Query = string(raw)
			return req, nil
		}
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return req, errors.Wrap(err, "decoding body")
		}
		return req, nil
	}
	return req, errors.Errorf("method %s not allowed", r.Method)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"message": msg}},
	})
}

// requestID tags every request with an id, keeping one supplied by the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// NewRouter exposes /graphql and /healthz with open CORS, panic recovery
// and structured access logs.
func NewRouter(svc *Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := mux.NewRouter()
	r.Use(requestID)
	r.Handle("/graphql", &graphqlHandler{schema: NewSchema(svc), log: logger}).
		Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "model": svc.model.Kind()})
	}).Methods(http.MethodGet)

	h := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)(r)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)(h)
	return handlers.CustomLoggingHandler(io.Discard, h, func(_ io.Writer, p handlers.LogFormatterParams) {
		logger.Info("request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"size", p.Size,
			"request_id", p.Request.Header.Get(requestIDHeader),
			"duration", time.Since(p.TimeStamp).String())
	})
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       serverTimeout,
		WriteTimeout:      serverTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listening")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWait)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

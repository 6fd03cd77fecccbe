package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dshills/colsolve/internal/config"
	"github.com/dshills/colsolve/internal/metrics"
	"github.com/dshills/colsolve/internal/solver"
	"github.com/dshills/colsolve/internal/transposition"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 16

// Solver runs one solve. *solver.Engine satisfies it.
type Solver interface {
	Run(ctx context.Context, ciphertext string, progress transposition.ProgressFunc) (*solver.Report, error)
}

// Server is a thin wrapper over chi + stdlib http.Server.
type Server struct {
	addr     string
	mux      *chi.Mux
	srv      *http.Server
	solver   Solver
	log      *zerolog.Logger
	validate *validator.Validate
}

// New builds the router and mounts every route.
func New(cfg config.ServerConfig, s Solver, log *zerolog.Logger) *Server {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	srv := &Server{
		addr:     cfg.Addr,
		mux:      chi.NewRouter(),
		solver:   s,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	m := srv.mux
	m.Use(middleware.RealIP)
	m.Use(middleware.RequestID)
	m.Use(middleware.Recoverer)
	m.Use(srv.logRequests)
	m.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	m.Get("/healthz", srv.handleHealth)
	m.Handle("/metrics", metrics.Handler())
	m.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/dimensions", srv.handleDimensions)
		r.Post("/decode", srv.handleDecode)
		r.With(middleware.Throttle(max(cfg.MaxConcurrent, 1))).Post("/solve", srv.handleSolve)
	})

	srv.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// Addr returns the listening address.
func (s *Server) Addr() string { return s.addr }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("http listening")
		err := s.srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

type solveRequest struct {
	CipherText string `json:"cipherText" validate:"required,max=10000"`
}

type decodeRequest struct {
	CipherText string `json:"cipherText" validate:"required,max=10000"`
	Rows       int    `json:"rows" validate:"min=2"`
	Order      []int  `json:"order" validate:"required"`
}

type decodeResponse struct {
	Dimension     transposition.Dimension   `json:"dimension"`
	ColumnOrder   transposition.ColumnOrder `json:"columnOrder"`
	DecryptedText string                    `json:"decryptedText"`
	Scores        transposition.Scores      `json:"scores"`
	Score         float64                   `json:"score"`
}

type dimensionsResponse struct {
	Length     int                       `json:"length"`
	Dimensions []transposition.Dimension `json:"dimensions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("length"))
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "length must be a non-negative integer")
		return
	}
	dims := transposition.Dimensions(n)
	if dims == nil {
		dims = []transposition.Dimension{}
	}
	writeJSON(w, http.StatusOK, dimensionsResponse{Length: n, Dimensions: dims})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if !s.decode(w, r, &req) {
		return
	}
	report, err := s.solver.Run(r.Context(), req.CipherText, nil)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	ct := transposition.Normalize(req.CipherText)
	if err := transposition.Validate(ct); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if len(ct)%req.Rows != 0 {
		writeError(w, http.StatusUnprocessableEntity, "rows must divide the ciphertext length")
		return
	}
	dim := transposition.Dimension{Rows: req.Rows, Cols: len(ct) / req.Rows}
	order := transposition.ColumnOrder(req.Order)
	text, err := transposition.Decrypt(ct, dim, order)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	scores := transposition.Score(text)
	writeJSON(w, http.StatusOK, decodeResponse{
		Dimension:     dim,
		ColumnOrder:   order,
		DecryptedText: text,
		Scores:        scores,
		Score:         transposition.DefaultWeights().Total(scores),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transposition.ErrInvalidCiphertext):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "solve cancelled")
	default:
		s.log.Error().Err(err).Msg("solve failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

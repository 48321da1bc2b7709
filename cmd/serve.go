package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/revgeo/internal/pipeline"
	"github.com/sells-group/revgeo/internal/table"
	"github.com/sells-group/revgeo/pkg/geocode"
)

const requestIDHeader = "X-Request-Id"

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reverse geocoding over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		pcfg, err := pipelineConfig(cfg)
		if err != nil {
			return err
		}

		rev, closeFn, err := initReverser(ctx, cfg.Geocode)
		if err != nil {
			return err
		}
		defer closeFn()

		srv := &server{
			reverser: rev,
			limiter:  pipeline.NewLimiter(cfg.Geocode.Delay),
			pipeline: pcfg,
			maxBody:  int64(cfg.Server.MaxBodyBytes),
		}
		return startServer(ctx, buildRouter(srv), resolvePort(servePort, cfg.Server.Port))
	},
}

// server holds the handlers' shared dependencies. The reverser and limiter
// are shared by all requests; each table request runs its own pipeline.
type server struct {
	reverser geocode.Reverser
	limiter  *rate.Limiter
	pipeline pipeline.Config
	maxBody  int64
}

func buildRouter(s *server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.StripSlashes)
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/reverse", s.handleReverse)
	r.Post("/v1/reverse/table", s.handleTable)

	return r
}

type requestIDKey struct{}

// requestID tags every request with an id, honouring one sent by the client.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))

		zap.L().Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func requestLogger(ctx context.Context) *zap.Logger {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return zap.L().With(zap.String("request_id", id))
	}
	return zap.L()
}

func (s *server) handleReverse(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lng must be a number")
		return
	}
	if !table.ValidCoordinate(lat, lng) {
		writeError(w, http.StatusBadRequest, "coordinate out of range")
		return
	}

	if err := s.limiter.Wait(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}

	result, err := s.reverser.ReverseGeocode(r.Context(), lat, lng)
	if err != nil {
		kind := geocode.KindOf(err)
		requestLogger(r.Context()).Warn("reverse lookup failed",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		writeError(w, statusForKind(kind), string(kind))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleTable(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r.Context())

	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	tbl, err := table.ReadDelimited(body, s.pipeline.Table)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "table too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid table")
		return
	}

	p := pipeline.New(s.reverser, s.pipeline, pipeline.WithLimiter(s.limiter))
	out, stats, err := p.Enrich(r.Context(), tbl)
	if err != nil {
		var (
			ife *pipeline.InputFormatError
			ce  *pipeline.CredentialError
		)
		switch {
		case errors.As(err, &ife):
			writeError(w, http.StatusBadRequest, ife.Error())
		case errors.As(err, &ce):
			log.Error("provider rejected credential", zap.Error(err))
			writeError(w, http.StatusBadGateway, "provider rejected credential")
		default:
			log.Warn("table request aborted", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "request cancelled")
		}
		return
	}

	log.Info("table reverse geocoded",
		zap.Int("total", stats.Total),
		zap.Int("geocoded", stats.Geocoded),
		zap.Int("failed", stats.Failed),
		zap.Int("invalid", stats.Invalid),
	)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("X-Rows-Geocoded", strconv.Itoa(stats.Geocoded))
	w.WriteHeader(http.StatusOK)
	if err := table.WriteDelimited(w, out, out.Delimiter); err != nil {
		log.Warn("write table response", zap.Error(err))
	}
}

func statusForKind(k geocode.Kind) int {
	switch k {
	case geocode.KindNoResult:
		return http.StatusNotFound
	case geocode.KindInvalidRequest:
		return http.StatusBadRequest
	case geocode.KindRateLimited:
		return http.StatusTooManyRequests
	case geocode.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves h on port until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

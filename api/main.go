package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/assembly-news-radar/internal/config"
	"github.com/DeafMist/assembly-news-radar/internal/logger"
	"github.com/DeafMist/assembly-news-radar/internal/models"
	"github.com/DeafMist/assembly-news-radar/internal/pipeline"
	"github.com/DeafMist/assembly-news-radar/internal/processing"
)

type newsService interface {
	Keywords() []string
	ListCached() []models.NewsItem
	Refresh(ctx context.Context, keywords []string) []models.NewsItem
	SearchOnce(ctx context.Context, query string, limit int) []models.NewsItem
	EntityNews(ctx context.Context, name string, limit int) []models.NewsItem
	MentionCounts() map[string]int
	TopKeywords(limit int) []processing.KeywordCount
}

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	svc, cleanup, err := pipeline.NewFromConfig(&cfg.Pipeline, log)
	if err != nil {
		log.Error("init pipeline", slog.Any("err", err))
		os.Exit(1)
	}
	defer cleanup()

	srv := &server{log: log, cfg: cfg, svc: svc}
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		svc.Run(ctx)
	}()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		log.Warn("scheduler did not stop before shutdown deadline")
	}
}

type server struct {
	log *slog.Logger
	cfg *config.API
	svc newsService
}

type errorResponse struct {
	Error string `json:"error"`
}

type itemsResponse struct {
	Count int               `json:"count"`
	Items []models.NewsItem `json:"items"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/news", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/search", s.handleSearch)
		r.Get("/mentions", s.handleMentions)
		r.Get("/keywords", s.handleKeywords)
		r.Get("/entity", s.handleEntity)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cached": len(s.svc.ListCached()),
	})
}

func (s *server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeItems(w, s.svc.ListCached())
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	keywords := parseCSV(r.URL.Query().Get("keywords"))
	if len(keywords) == 0 {
		keywords = s.svc.Keywords()
	}
	// A refresh started by a client runs to completion even if it disconnects.
	items := s.svc.Refresh(context.WithoutCancel(r.Context()), keywords)
	writeItems(w, items)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "q is required"})
		return
	}
	limit := clampInt(r.URL.Query().Get("limit"), s.cfg.DefaultLimit, s.cfg.MaxLimit)
	writeItems(w, s.svc.SearchOnce(r.Context(), query, limit))
}

func (s *server) handleEntity(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}
	limit := clampInt(r.URL.Query().Get("limit"), s.cfg.MaxLimit, s.cfg.MaxLimit)
	writeItems(w, s.svc.EntityNews(r.Context(), name, limit))
}

func (s *server) handleMentions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.MentionCounts())
}

func (s *server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(r.URL.Query().Get("limit"), s.cfg.DefaultLimit, s.cfg.MaxLimit)
	top := s.svc.TopKeywords(limit)
	if top == nil {
		top = []processing.KeywordCount{}
	}
	writeJSON(w, http.StatusOK, top)
}

func writeItems(w http.ResponseWriter, items []models.NewsItem) {
	if items == nil {
		items = []models.NewsItem{}
	}
	writeJSON(w, http.StatusOK, itemsResponse{Count: len(items), Items: items})
}

func parseCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

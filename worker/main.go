package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/DeafMist/assembly-news-radar/internal/config"
	"github.com/DeafMist/assembly-news-radar/internal/logger"
	"github.com/DeafMist/assembly-news-radar/internal/models"
	"github.com/DeafMist/assembly-news-radar/internal/pipeline"
)

type refresher interface {
	Keywords() []string
	Refresh(ctx context.Context, keywords []string) []models.NewsItem
}

func main() {
	once := flag.Bool("once", false, "run a single pass, print the cached items as JSON and exit")
	keywords := flag.String("keywords", "", "comma separated keywords overriding the policy file")
	flag.Parse()

	log := logger.New("worker")
	cfg, err := config.LoadPipeline()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	svc, cleanup, err := pipeline.NewFromConfig(cfg, log)
	if err != nil {
		log.Error("init pipeline", slog.Any("err", err))
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if *once {
		if err := runOnce(ctx, svc, parseKeywords(*keywords), os.Stdout); err != nil {
			log.Error("write items", slog.Any("err", err))
			cleanup()
			os.Exit(1)
		}
		return
	}

	log.Info("worker started", slog.Int("keywords", len(svc.Keywords())))
	svc.Run(ctx)
	log.Info("worker stopped")
}

func runOnce(ctx context.Context, svc refresher, keywords []string, w io.Writer) error {
	if len(keywords) == 0 {
		keywords = svc.Keywords()
	}
	return writeItems(w, svc.Refresh(ctx, keywords))
}

func writeItems(w io.Writer, items []models.NewsItem) error {
	if items == nil {
		items = []models.NewsItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func parseKeywords(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

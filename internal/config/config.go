package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DeafMist/assembly-news-radar/internal/classify"
)

// Search holds upstream news-search API parameters. Credentials come from
// the environment only.
type Search struct {
	BaseURL      string
	Path         string
	ClientID     string
	ClientSecret string
	IDHeader     string
	SecretHeader string
	Display      int
	Sort         string
	Timeout      time.Duration
}

// Policy is the keyword file: what to search for and what counts as relevant.
type Policy struct {
	Keywords        []string `yaml:"keywords"`
	classify.Policy `yaml:",inline"`
}

// Pipeline configures fetching, filtering, dedup and the cache.
type Pipeline struct {
	Search
	Policy          Policy
	PolicyPath      string
	EntitiesPath    string
	MaxParallel     int
	BreakingWindow  time.Duration
	HistoryWindow   time.Duration
	CacheTTL        time.Duration
	CacheCapacity   int
	SweepInterval   time.Duration
	RefreshInterval time.Duration
	FuzzyThreshold  float64
	KafkaBrokers    []string
	KafkaTopic      string
}

// API describes HTTP-layer configuration.
type API struct {
	Pipeline
	BindAddr     string
	DefaultLimit int
	MaxLimit     int
}

// LoadPipeline builds a Pipeline config from environment variables and the
// policy file they point at.
func LoadPipeline() (*Pipeline, error) {
	c := &Pipeline{
		Search: Search{
			BaseURL:      getEnv("SEARCH_BASE_URL", "https://openapi.naver.com"),
			Path:         getEnv("SEARCH_PATH", "/v1/search/news.json"),
			ClientID:     getEnv("SEARCH_CLIENT_ID", ""),
			ClientSecret: getEnv("SEARCH_CLIENT_SECRET", ""),
			IDHeader:     getEnv("SEARCH_ID_HEADER", "X-Naver-Client-Id"),
			SecretHeader: getEnv("SEARCH_SECRET_HEADER", "X-Naver-Client-Secret"),
			Display:      getInt("SEARCH_DISPLAY", 100),
			Sort:         getEnv("SEARCH_SORT", "date"),
			Timeout:      getDuration("SEARCH_TIMEOUT", "10s"),
		},
		PolicyPath:      getEnv("PIPELINE_POLICY_PATH", "configs/policy.yaml"),
		EntitiesPath:    getEnv("PIPELINE_ENTITIES_PATH", ""),
		MaxParallel:     getInt("PIPELINE_MAX_PARALLEL", 4),
		BreakingWindow:  getDuration("PIPELINE_BREAKING_WINDOW", "6h"),
		HistoryWindow:   getDuration("PIPELINE_HISTORY_WINDOW", "720h"),
		CacheTTL:        getDuration("PIPELINE_CACHE_TTL", "4h15m"),
		CacheCapacity:   getInt("PIPELINE_CACHE_CAPACITY", 5000),
		SweepInterval:   getDuration("PIPELINE_SWEEP_INTERVAL", "5m"),
		RefreshInterval: getDuration("PIPELINE_REFRESH_INTERVAL", "30m"),
		FuzzyThreshold:  getFloat("PIPELINE_FUZZY_THRESHOLD", 0.6),
		KafkaBrokers:    splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "news_cached"),
	}

	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, fmt.Errorf("SEARCH_CLIENT_ID and SEARCH_CLIENT_SECRET are required")
	}
	if c.Display < 1 || c.Display > 100 {
		return nil, fmt.Errorf("SEARCH_DISPLAY must be between 1 and 100")
	}
	if c.Sort != "sim" && c.Sort != "date" {
		return nil, fmt.Errorf("SEARCH_SORT must be 'sim' or 'date'")
	}
	if c.Timeout <= 0 {
		return nil, fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.MaxParallel <= 0 {
		return nil, fmt.Errorf("PIPELINE_MAX_PARALLEL must be positive")
	}
	if c.BreakingWindow <= 0 || c.HistoryWindow <= 0 {
		return nil, fmt.Errorf("PIPELINE_BREAKING_WINDOW and PIPELINE_HISTORY_WINDOW must be positive")
	}
	if c.CacheTTL <= 0 {
		return nil, fmt.Errorf("PIPELINE_CACHE_TTL must be positive")
	}
	if c.SweepInterval <= 0 || c.RefreshInterval <= 0 {
		return nil, fmt.Errorf("PIPELINE_SWEEP_INTERVAL and PIPELINE_REFRESH_INTERVAL must be positive")
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold >= 1 {
		return nil, fmt.Errorf("PIPELINE_FUZZY_THRESHOLD must be between 0 and 1")
	}

	policy, err := LoadPolicy(c.PolicyPath)
	if err != nil {
		return nil, err
	}
	c.Policy = *policy

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	p, err := LoadPipeline()
	if err != nil {
		return nil, err
	}

	c := &API{
		Pipeline:     *p,
		BindAddr:     getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultLimit: getInt("API_DEFAULT_LIMIT", 20),
		MaxLimit:     getInt("API_MAX_LIMIT", 100),
	}

	if c.DefaultLimit <= 0 {
		return nil, fmt.Errorf("API_DEFAULT_LIMIT must be positive")
	}
	if c.MaxLimit <= 0 || c.MaxLimit > 100 {
		return nil, fmt.Errorf("API_MAX_LIMIT must be between 1 and 100")
	}
	if c.DefaultLimit > c.MaxLimit {
		return nil, fmt.Errorf("API_DEFAULT_LIMIT cannot exceed API_MAX_LIMIT")
	}

	return c, nil
}

// LoadPolicy reads the keyword policy YAML file.
func LoadPolicy(path string) (*Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open policy file: %w", err)
	}
	defer f.Close()

	var p Policy
	if err := yaml.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode policy file %s: %w", path, err)
	}

	p.Keywords = dedupeStrings(p.Keywords)
	if len(p.Keywords) == 0 {
		return nil, fmt.Errorf("policy file %s: keywords must not be empty", path)
	}
	if len(dedupeStrings(p.Include)) == 0 {
		return nil, fmt.Errorf("policy file %s: include must not be empty", path)
	}
	return &p, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	return dedupeStrings(strings.Split(raw, ","))
}

func dedupeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, part := range in {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

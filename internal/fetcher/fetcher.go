// Package fetcher queries the upstream news-search API.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/DeafMist/assembly-news-radar/internal/config"
	"github.com/DeafMist/assembly-news-radar/internal/models"
)

// ErrFetchFailed wraps network, HTTP status and decoding failures.
var ErrFetchFailed = errors.New("fetch failed")

const (
	minDisplay = 1
	maxDisplay = 100
)

type searchResponse struct {
	Items []struct {
		Title        string `json:"title"`
		OriginalLink string `json:"originallink"`
		Link         string `json:"link"`
		Description  string `json:"description"`
		PubDate      string `json:"pubDate"`
	} `json:"items"`
}

// Client issues one search request per keyword.
type Client struct {
	http *resty.Client
	path string
	sort string
	log  *slog.Logger
}

// New builds a client with credential headers and a request timeout.
func New(cfg config.Search, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader(cfg.IDHeader, cfg.ClientID).
		SetHeader(cfg.SecretHeader, cfg.ClientSecret)

	hc.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		log.Debug("search response",
			slog.String("url", res.Request.URL),
			slog.Int("status", res.StatusCode()),
			slog.Duration("took", res.Time()),
		)
		return nil
	})

	return &Client{http: hc, path: cfg.Path, sort: cfg.Sort, log: log}
}

// Fetch returns up to count raw candidates for keyword. Any failure yields
// no candidates and an error wrapping ErrFetchFailed. A valid response with
// zero items is not an error.
func (c *Client) Fetch(ctx context.Context, keyword string, count int) ([]models.Candidate, error) {
	if count < minDisplay {
		count = minDisplay
	}
	if count > maxDisplay {
		count = maxDisplay
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":   keyword,
			"display": strconv.Itoa(count),
			"start":   "1",
			"sort":    c.sort,
		}).
		Get(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: keyword %q: %v", ErrFetchFailed, keyword, err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: keyword %q: status %s", ErrFetchFailed, keyword, res.Status())
	}

	var parsed searchResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("%w: keyword %q: decode response: %v", ErrFetchFailed, keyword, err)
	}

	out := make([]models.Candidate, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			link = strings.TrimSpace(it.OriginalLink)
		}
		out = append(out, models.Candidate{
			Title:       it.Title,
			Description: it.Description,
			Link:        link,
			PubDate:     it.PubDate,
			Keyword:     keyword,
		})
	}

	if len(out) == 0 {
		c.log.Debug("empty upstream result", slog.String("keyword", keyword))
	}
	return out, nil
}

package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/city-dashboard/internal/common"
	"github.com/i474232898/city-dashboard/internal/feed"
)

const (
	newsDefaultQuery = "news"
	newsPageSize     = 20
	newsUserAgent    = "city-dashboard/1.0"
)

// NewsAPIProvider implements feed.Provider[[]feed.NewsArticle] using the
// NewsAPI "everything" search. Fetch never returns an error.
type NewsAPIProvider struct {
	name      string
	apiKey    string
	baseURL   string
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
	mockDelay time.Duration
}

func NewNewsAPIProvider(client *http.Client, apiKey string) *NewsAPIProvider {
	return &NewsAPIProvider{
		name:      "newsapi",
		apiKey:    strings.TrimSpace(apiKey),
		baseURL:   "https://newsapi.org/v2",
		client:    client,
		circuit:   newCircuitBreaker("newsapi"),
		mockDelay: 100 * time.Millisecond,
	}
}

func (p *NewsAPIProvider) Name() string {
	return p.name
}

type newsAPIResponse struct {
	Articles []struct {
		Title  string `json:"title"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (p *NewsAPIProvider) Fetch(ctx context.Context, query string) ([]feed.NewsArticle, error) {
	if p.apiKey == "" {
		simulateDelay(ctx, p.mockDelay)
		return SyntheticArticles(), nil
	}

	values := url.Values{}
	values.Set("q", common.DefaultIfBlank(strings.TrimSpace(query), newsDefaultQuery))
	values.Set("sortBy", "publishedAt")
	values.Set("pageSize", strconv.Itoa(newsPageSize))
	values.Set("language", "en")
	values.Set("apiKey", p.apiKey)
	u := fmt.Sprintf("%s/everything?%s", p.baseURL, values.Encode())

	header := http.Header{}
	header.Set("User-Agent", newsUserAgent)
	header.Set("Accept", "application/json")

	var payload newsAPIResponse
	if err := getJSON(ctx, p.client, p.circuit, u, header, &payload); err != nil {
		slog.Warn("news search failed; using synthetic articles", "feed", p.name, "query", query, "err", err)
		return SyntheticArticles(), nil
	}

	articles := mapNewsArticles(payload, time.Now().UTC())
	if len(articles) == 0 {
		slog.Info("news search returned no articles; using synthetic articles", "feed", p.name, "query", query)
		return SyntheticArticles(), nil
	}
	return articles, nil
}

// mapNewsArticles drops untitled results. A missing or unparsable
// publishedAt becomes now.
func mapNewsArticles(payload newsAPIResponse, now time.Time) []feed.NewsArticle {
	articles := make([]feed.NewsArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if common.IsBlank(a.Title) {
			continue
		}

		published := now
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			published = ts.UTC()
		}

		articles = append(articles, feed.NewsArticle{
			Title:       a.Title,
			Source:      a.Source.Name,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: published,
			Provenance:  feed.ProvenanceLive,
		})
	}
	return articles
}

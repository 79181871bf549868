// Package zendesk fetches help-center articles from the Zendesk API.
//
// The listing endpoint is paginated; ListArticles walks every page and
// returns the complete article set for the run. Records missing required
// fields are dropped with a warning rather than passed downstream.
package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"kbsync/internal/metrics"
)

const perPage = 100

// Config configures the client.
type Config struct {
	Subdomain string
	// Email and Token enable authenticated fetches (Zendesk API token auth).
	// Both empty means anonymous access to the public help center.
	Email string
	Token string
	// BaseURL overrides the derived https://{subdomain}.zendesk.com/api/v2
	// endpoint. Used by tests.
	BaseURL string
	// RequestsPerSecond throttles page fetches. Default: 5.
	RequestsPerSecond float64
	// Timeout is the per-request HTTP timeout. Default: 30s.
	Timeout time.Duration
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("https://%s.zendesk.com/api/v2", c.Subdomain)
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Client lists help-center articles.
type Client struct {
	baseURL    string
	email      string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		baseURL:    cfg.BaseURL,
		email:      cfg.Email,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// ListArticles fetches every page of the article listing, newest first.
// A failure here is fatal to the run: partial listings would make removal
// detection unsound. The second return value counts records dropped by
// validation; a non-zero count means the returned id set is incomplete
// and removal detection must not run against it.
func (c *Client) ListArticles(ctx context.Context) ([]Article, int, error) {
	var articles []Article
	rejected := 0

	page := 1
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, rejected, err
		}

		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			metrics.SourcePagesFetched.WithLabelValues("error").Inc()
			return nil, rejected, fmt.Errorf("fetch page %d: %w", page, err)
		}
		metrics.SourcePagesFetched.WithLabelValues("success").Inc()

		for _, a := range resp.Articles {
			if err := validate(a); err != nil {
				slog.Warn("Dropping invalid article record",
					slog.Int64("article_id", a.ID),
					slog.String("error", err.Error()))
				metrics.ArticlesRejected.Inc()
				rejected++
				continue
			}
			articles = append(articles, a)
		}

		slog.Debug("Fetched article page",
			slog.Int("page", page),
			slog.Int("count", len(resp.Articles)))

		if len(resp.Articles) == 0 || resp.NextPage == nil || *resp.NextPage == "" {
			break
		}
		page++
	}

	metrics.ArticlesFetched.Add(float64(len(articles)))
	return articles, rejected, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (*listResponse, error) {
	endpoint := c.baseURL + "/help_center/articles.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("sort_by", "updated_at")
	q.Set("sort_order", "desc")
	req.URL.RawQuery = q.Encode()

	// Zendesk API token auth: "{email}/token" as the basic-auth user.
	if c.email != "" && c.token != "" {
		req.SetBasicAuth(c.email+"/token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	return &list, nil
}

func validate(a Article) error {
	if a.ID == 0 {
		return fmt.Errorf("missing id")
	}
	if a.Body == "" {
		return fmt.Errorf("missing body")
	}
	return nil
}

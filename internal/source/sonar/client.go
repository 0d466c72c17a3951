package sonar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

// Sentinel errors.
var (
	// ErrUnexpectedStatus is returned for non-2xx responses that are not retried or
	// that kept failing after every retry.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrInvalidConfig is returned by NewClient for unusable settings.
	ErrInvalidConfig = errors.New("invalid feed config")
	// ErrInvalidPage is returned when a response cannot drive pagination.
	ErrInvalidPage = errors.New("invalid feed page")
)

const (
	commitsPath          = "/api/scm/commits"
	firstPage            = 1
	defaultPageSize      = 100
	maxPageSize          = 500
	defaultMaxRetries    = 3
	defaultTimeout       = 30 * time.Second
	defaultRetryInterval = 500 * time.Millisecond
	maxErrorBody         = 512
)

// Config configures a feed client.
type Config struct {
	// BaseURL is the server root, e.g. https://sonar.example.com.
	BaseURL string
	// Project is sent as the project query parameter when set.
	Project string
	// Token is sent as a bearer token when set.
	Token string
	// PageSize is the requested number of commits per page.
	PageSize int
	// MaxRetries bounds retries of transient failures per page.
	MaxRetries int
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// RetryInterval is the first backoff delay.
	RetryInterval time.Duration
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Logger receives per-page debug output. Nil disables it.
	Logger *slog.Logger
}

// Client fetches pages of the feed.
type Client struct {
	base   *url.URL
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// Page is one decoded response.
type Page struct {
	Paging  PagingInfo   `json:"paging"`
	Commits []pageCommit `json:"commits"`
}

type pageCommit struct {
	Hash          string             `json:"hash"`
	Author        string             `json:"author"`
	Date          time.Time          `json:"date"`
	Modifications []pageModification `json:"modifications"`
}

type pageModification struct {
	FileID       string         `json:"fileId"`
	ChangeKind   scm.ChangeKind `json:"changeKind"`
	OldFileID    string         `json:"oldFileId,omitempty"`
	AddedLines   int64          `json:"addedLines,omitempty"`
	DeletedLines int64          `json:"deletedLines,omitempty"`
}

// NewClient validates cfg and fills in defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: empty base url", ErrInvalidConfig)
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %w", ErrInvalidConfig, err)
	}

	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: base url scheme %q", ErrInvalidConfig, base.Scheme)
	}

	if cfg.PageSize == 0 {
		cfg.PageSize = defaultPageSize
	}

	if cfg.PageSize < 0 || cfg.PageSize > maxPageSize {
		return nil, fmt.Errorf("%w: page size %d not in 1..%d", ErrInvalidConfig, cfg.PageSize, maxPageSize)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: negative max retries", ErrInvalidConfig)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{base: base, cfg: cfg, http: httpClient, logger: logger}, nil
}

// DefaultConfig returns a config with default paging and retry settings.
func DefaultConfig() Config {
	return Config{
		PageSize:      defaultPageSize,
		MaxRetries:    defaultMaxRetries,
		Timeout:       defaultTimeout,
		RetryInterval: defaultRetryInterval,
	}
}

// FetchPage fetches one page, retrying transient failures with exponential backoff.
func (c *Client) FetchPage(ctx context.Context, pageIndex int) (*Page, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryInterval

	page, err := backoff.Retry(ctx, func() (*Page, error) {
		return c.fetchOnce(ctx, pageIndex)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries)+1), //nolint:gosec // validated non-negative.
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.WarnContext(ctx, "retrying feed page", "page", pageIndex, "wait", wait, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", pageIndex, err)
	}

	return page, nil
}

func (c *Client) fetchOnce(ctx context.Context, pageIndex int) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(pageIndex), http.NoBody)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}

	req.Header.Set("Accept", "application/json")

	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}

		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := fmt.Errorf("%w: %s: %s", ErrUnexpectedStatus, resp.Status, strings.TrimSpace(string(body)))

		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, statusErr
		}

		return nil, backoff.Permanent(statusErr)
	}

	var page Page

	err = json.NewDecoder(resp.Body).Decode(&page)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: decode: %w", ErrInvalidPage, err))
	}

	c.logger.DebugContext(ctx, "fetched feed page", "page", pageIndex, "commits", len(page.Commits),
		"total", page.Paging.Total)

	return &page, nil
}

func (c *Client) pageURL(pageIndex int) string {
	target := *c.base
	target.Path = strings.TrimSuffix(target.Path, "/") + commitsPath

	query := target.Query()
	query.Set("p", strconv.Itoa(pageIndex))
	query.Set("ps", strconv.Itoa(c.cfg.PageSize))

	if c.cfg.Project != "" {
		query.Set("project", c.cfg.Project)
	}

	target.RawQuery = query.Encode()

	return target.String()
}

func (pc pageCommit) toCommit() *scm.Commit {
	commit := &scm.Commit{
		Hash:          pc.Hash,
		Author:        pc.Author,
		When:          pc.Date,
		Modifications: make([]scm.Modification, len(pc.Modifications)),
	}

	for i, pm := range pc.Modifications {
		commit.Modifications[i] = scm.Modification{
			FileID:       pm.FileID,
			Kind:         pm.ChangeKind,
			OldFileID:    pm.OldFileID,
			AddedLines:   pm.AddedLines,
			DeletedLines: pm.DeletedLines,
		}
	}

	return commit
}

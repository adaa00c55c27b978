// Package gameday retrieves GameDay documents over HTTP.
//
// The Client resolves game and day directories through a gameid.Codec,
// throttles every request through one shared token bucket and retries
// transient failures with exponential backoff. Any response that is not a
// success, and any document that does not parse, is reported as
// ErrDocumentUnavailable so callers can treat it as absent. Only context
// cancellation is returned as a hard error.
package gameday

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/okian/breakingball/internal/domain/gameid"
	"github.com/okian/breakingball/pkg/logger"
	"github.com/okian/breakingball/pkg/metrics"
	"golang.org/x/time/rate"
)

// Defaults used by New.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultRetries        = 3
	DefaultRPS            = 5
	DefaultBurst          = 5
	DefaultUserAgent      = "breakingball/1.0"
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
)

// Document kinds, used as metric labels.
const (
	DocListing    = "listing"
	DocLinescore  = "linescore"
	DocBoxscore   = "boxscore"
	DocInningList = "inning_list"
	DocInning     = "inning"
	DocRaw        = "raw"
)

// Client fetches GameDay documents.
type Client struct {
	http           *http.Client
	codec          *gameid.Codec
	baseURL        string
	limiter        *rate.Limiter
	timeout        time.Duration
	retries        uint
	initialBackoff time.Duration
	maxBackoff     time.Duration
	userAgent      string
	log            logger.Logger
}

// New returns a Client for the public GameDay host unless WithBaseURL says
// otherwise.
func New(opts ...Option) *Client {
	c := &Client{
		http:           &http.Client{},
		timeout:        DefaultTimeout,
		retries:        DefaultRetries,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		userAgent:      DefaultUserAgent,
		limiter:        rate.NewLimiter(rate.Limit(DefaultRPS), DefaultBurst),
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.codec = gameid.New(c.baseURL)
	c.log = c.log.Named("gameday")
	return c
}

// Codec returns the locator codec the client resolves games with.
func (c *Client) Codec() *gameid.Codec { return c.codec }

// Get returns the body at url.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url, DocRaw)
}

// fetch retrieves url, retrying network failures, 5xx and 429 responses.
func (c *Client) fetch(ctx context.Context, url, doc string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff

	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		metrics.RecordFetchAttempt(doc)
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		return c.do(ctx, url)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.retries+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.log.Debug(ctx, "retrying fetch",
				logger.String(logger.KeyURL, url),
				logger.Int("attempt", attempt),
				logger.Duration("wait", wait),
				logger.Error(err))
		}),
	)
	if err == nil {
		return body, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if IsNotFound(err) {
		metrics.RecordFetchFailure(doc, "not_found")
	} else {
		metrics.RecordFetchFailure(doc, "unavailable")
	}
	if errors.Is(err, ErrDocumentUnavailable) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrDocumentUnavailable, url, err)
}

// do performs one request. Errors that no retry can fix are wrapped with
// backoff.Permanent.
func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: build request: %w", ErrDocumentUnavailable, err))
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		se := &StatusError{URL: url, Code: resp.StatusCode}
		if se.retryable() {
			return nil, se
		}
		return nil, backoff.Permanent(se)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/xml, application/xml, text/html;q=0.9, */*;q=0.8")
}

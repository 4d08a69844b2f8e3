package flex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/logger"
)

const maxBodyBytes = 32 << 20

// Fetcher retrieves the raw trade rows produced by one saved query.
type Fetcher interface {
	Fetch(ctx context.Context, queryID string, kind models.SchemaKind) ([]Record, error)
}

// Options configures a Client.
//
// Fields:
//   - Token: Flex Web Service token.
//   - SendURL: endpoint that accepts a query id and answers with a reference code.
//   - StatementURL: endpoint that returns the statement for a reference code.
//   - Version: API version ("v" parameter), 3 when zero.
//   - Timeout: per-request timeout, 30s when zero.
type Options struct {
	Token        string
	SendURL      string
	StatementURL string
	Version      int
	Timeout      time.Duration
}

// Client talks to the Flex Web Service. Retrieval is asynchronous on the provider side,
// so every fetch is two requests: SendRequest (query id → reference code) and
// GetStatement (reference code → statement XML).
type Client struct {
	opts Options
	http *http.Client
	log  zerolog.Logger
}

// NewClient builds a Client. A nil httpClient uses a client with opts.Timeout.
func NewClient(opts Options, httpClient *http.Client) *Client {
	if opts.Version == 0 {
		opts.Version = 3
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{opts: opts, http: httpClient, log: logger.With("flex")}
}

// Fetch runs one saved query and returns its trade rows.
//
// Errors:
//   - ErrStatementFailed (as *StatementError) when either step reports Status=Fail.
//   - ErrNoReferenceCode when SendRequest carries no reference code.
//   - ErrNoTradesNode when the statement lacks the schema's trades node.
//   - transport/decoding errors, wrapped.
func (c *Client) Fetch(ctx context.Context, queryID string, kind models.SchemaKind) ([]Record, error) {
	body, err := c.get(ctx, c.opts.SendURL, queryID)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	ref, err := parseSendResponse(body)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("schema", kind.String()).Str("reference_code", ref).Msg("reference code received")

	body, err = c.get(ctx, c.opts.StatementURL, ref)
	if err != nil {
		return nil, fmt.Errorf("get statement: %w", err)
	}
	rows, err := parseStatement(body, kind)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("schema", kind.String()).Int("rows", len(rows)).Msg("statement retrieved")
	return rows, nil
}

func (c *Client) get(ctx context.Context, endpoint, q string) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	params := u.Query()
	params.Set("t", c.opts.Token)
	params.Set("q", q)
	params.Set("v", strconv.Itoa(c.opts.Version))
	u.RawQuery = params.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "flexledger/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	// Failure envelopes arrive with 200 as well; only transport-level errors are rejected here.
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

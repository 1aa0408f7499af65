package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"ProfitPortal/internal/common"
	"ProfitPortal/internal/model"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// FeedOptions configures the HTTP side of a Fetcher.
type FeedOptions struct {
	BaseURL    string
	APIKey     string
	ProxyURL   string
	Timeout    time.Duration
	RateLimit  int
	TargetPath string // JSONPath of the analyst figure in the estimate payload
	Logger     *common.Logger
}

// feedClient performs rate-limited GETs and turns every failure into a *model.FetchError.
type feedClient struct {
	client  *http.Client
	limiter *rate.Limiter
	header  http.Header
	logger  *common.Logger
}

func newFeedClient(opts FeedOptions) feedClient {
	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := opts.RateLimit
	if rps <= 0 {
		rps = DefaultRateLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return feedClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		header:  http.Header{},
		logger:  logger,
	}
}

// get returns the body of a 200 response.
func (c *feedClient) get(ctx context.Context, op string, symbol model.Symbol, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &model.FetchError{Kind: model.FetchTimeout, Op: op, Symbol: symbol.String(), Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &model.FetchError{Kind: model.FetchRejected, Op: op, Symbol: symbol.String(), Err: err}
	}
	for k, v := range c.header {
		req.Header[k] = v
	}

	c.logger.Debug().Str("op", op).Str("symbol", symbol.String()).Str("host", req.URL.Host).Msg("feed request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError(op, symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, symbol, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.FetchError{
			Kind:       kindForStatus(resp.StatusCode),
			Op:         op,
			Symbol:     symbol.String(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("body: %s", truncate(body, 200)),
		}
	}
	return body, nil
}

func transportError(op string, symbol model.Symbol, err error) *model.FetchError {
	kind := model.FetchUnavailable
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = model.FetchTimeout
	}
	return &model.FetchError{Kind: kind, Op: op, Symbol: symbol.String(), Err: err}
}

func kindForStatus(status int) model.FetchErrorKind {
	switch {
	case status == http.StatusNotFound:
		return model.FetchNotFound
	case status == http.StatusTooManyRequests:
		return model.FetchRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return model.FetchTimeout
	case status >= 500:
		return model.FetchUnavailable
	default:
		return model.FetchRejected
	}
}

func malformed(op string, symbol model.Symbol, err error) *model.FetchError {
	return &model.FetchError{Kind: model.FetchMalformed, Op: op, Symbol: symbol.String(), Err: err}
}

// extractFigure evaluates path against an arbitrary JSON document. A body that is
// not JSON is an error; a path that matches nothing usable is Unavailable.
func extractFigure(body []byte, path string) (decimal.NullDecimal, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return decimal.NullDecimal{}, err
	}
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return decimal.NullDecimal{}, nil
	}
	// jsonpath may answer with a list of one
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return decimal.NullDecimal{}, nil
		}
		v = list[0]
	}
	return figure(v), nil
}

// figure converts a decoded JSON value into a positive price, or Unavailable.
func figure(v any) decimal.NullDecimal {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(n))
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil || !d.IsPositive() {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	default:
		return decimal.NullDecimal{}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Package session holds the authenticated SaltyBet HTTP session and the
// operations that require it: logging in, reading the balance, and
// placing wagers.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Default endpoints for the production site.
const (
	DefaultIndexURL   = "https://www.saltybet.com/"
	DefaultLoginURL   = "https://www.saltybet.com/authenticate?signin=1"
	DefaultBetURL     = "https://www.saltybet.com/ajax_place_bet.php"
	DefaultRefererURL = "https://www.saltybet.com/"

	defaultRateLimit = 2.0
	defaultBurst     = 3
)

// ErrBetRejected is returned when the server's response does not
// indicate the wager was accepted. It usually means the session
// cookies have expired and a fresh login is needed.
var ErrBetRejected = errors.New("bet rejected by server")

// The balance is only present in the index page markup.
var balanceRe = regexp.MustCompile(`(?m)<span class="dollar" id="balance">([0-9,]+)</span>`)

// Side selects which party a wager backs, in the form values the bet
// endpoint expects.
type Side string

const (
	SideFirst  Side = "player1"
	SideSecond Side = "player2"
)

// Client is an authenticated SaltyBet session. The cookie jar is owned
// by the client: Login refreshes it and every subsequent request reads
// from it, so a single Client must be shared across calls rather than
// constructed per request.
type Client struct {
	indexURL   string
	loginURL   string
	betURL     string
	refererURL string

	username string
	password string

	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithIndexURL sets a custom index (balance) page URL.
func WithIndexURL(url string) ClientOption {
	return func(c *Client) {
		c.indexURL = url
	}
}

// WithLoginURL sets a custom login endpoint.
func WithLoginURL(url string) ClientOption {
	return func(c *Client) {
		c.loginURL = url
	}
}

// WithBetURL sets a custom bet endpoint.
func WithBetURL(url string) ClientOption {
	return func(c *Client) {
		c.betURL = url
	}
}

// WithRefererURL sets the Referer header sent on authenticated calls.
func WithRefererURL(url string) ClientOption {
	return func(c *Client) {
		c.refererURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. The client's jar is
// replaced so the session still owns its cookies.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a session client with the given credentials.
func NewClient(username, password string, opts ...ClientOption) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		indexURL:   DefaultIndexURL,
		loginURL:   DefaultLoginURL,
		betURL:     DefaultBetURL,
		refererURL: DefaultRefererURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		c.httpClient.Jar = jar
	}

	return c, nil
}

// Login authenticates with the stored credentials, refreshing the
// session cookies held by the client's jar.
func (c *Client) Login(ctx context.Context) error {
	params := url.Values{
		"email":        {c.username},
		"pword":        {c.password},
		"authenticate": {"signin"},
	}

	resp, err := c.postForm(ctx, c.loginURL, params, nil)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return nil
}

// Balance fetches the current wagering balance by scraping the index
// page.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.indexURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create balance request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch balance page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read balance page: %w", err)
	}

	m := balanceRe.FindSubmatch(body)
	if m == nil {
		return decimal.Zero, errors.New("balance not found in page")
	}

	balance, err := decimal.NewFromString(strings.ReplaceAll(string(m[1]), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", m[1], err)
	}

	return balance, nil
}

// PlaceBet submits a wager backing side. The endpoint signals
// acceptance through the response body rather than the status code: a
// body ending in "1" means the bet was taken, anything else is a
// rejection (typically an expired session).
func (c *Client) PlaceBet(ctx context.Context, side Side, amount decimal.Decimal) error {
	params := url.Values{
		"selectedplayer": {string(side)},
		"wager":          {amount.String()},
	}

	headers := http.Header{}
	headers.Set("Accept", "application/x-www-form-urlencoded; charset=UTF-8")
	headers.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.postForm(ctx, c.betURL, params, headers)
	if err != nil {
		return fmt.Errorf("place bet on %s: %w", side, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read bet response: %w", err)
	}

	if !strings.HasSuffix(strings.TrimSpace(string(body)), "1") {
		return fmt.Errorf("status %d, body %q: %w", resp.StatusCode, string(body), ErrBetRejected)
	}

	return nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, params url.Values, headers http.Header) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Referer", c.refererURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	return resp, nil
}

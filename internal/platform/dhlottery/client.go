// Package dhlottery fetches official 6/45 results from the operator's public
// JSON endpoint. The endpoint is unauthenticated and unversioned, so callers
// should treat every fetch as best-effort.
package dhlottery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// DefaultBaseURL is the operator's site root.
const DefaultBaseURL = "https://www.dhlottery.co.kr"

// Location is the draw time zone. Korea observes no daylight saving.
var Location = time.FixedZone("KST", 9*60*60)

// FirstDrawAt is when round 1 was drawn. Rounds follow weekly.
var FirstDrawAt = time.Date(2002, time.December, 7, 20, 45, 0, 0, Location)

// Client is the REST client for the draw result endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// apiDraw is the wire shape of one result.
type apiDraw struct {
	ReturnValue string `json:"returnValue"`
	Round       int    `json:"drwNo"`
	Date        string `json:"drwNoDate"`
	N1          int    `json:"drwtNo1"`
	N2          int    `json:"drwtNo2"`
	N3          int    `json:"drwtNo3"`
	N4          int    `json:"drwtNo4"`
	N5          int    `json:"drwtNo5"`
	N6          int    `json:"drwtNo6"`
	Bonus       int    `json:"bnusNo"`
}

func (a apiDraw) toDomain() (domain.Draw, error) {
	date, err := time.Parse(domain.DateLayout, a.Date)
	if err != nil {
		return domain.Draw{}, fmt.Errorf("parse date %q: %w", a.Date, err)
	}
	return domain.NewDraw(a.Round, date, []int{a.N1, a.N2, a.N3, a.N4, a.N5, a.N6}, a.Bonus)
}

// Draw fetches the result for round. Rounds not yet drawn return
// domain.ErrNotFound.
func (c *Client) Draw(ctx context.Context, round int) (domain.Draw, error) {
	if round <= 0 {
		return domain.Draw{}, fmt.Errorf("dhlottery: round %d: %w", round, domain.ErrInvalidInput)
	}
	params := url.Values{}
	params.Set("method", "getLottoNumber")
	params.Set("drwNo", strconv.Itoa(round))

	body, err := c.doGet(ctx, "/common.do?"+params.Encode())
	if err != nil {
		return domain.Draw{}, fmt.Errorf("dhlottery: get round %d: %w", round, err)
	}

	var raw apiDraw
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Draw{}, fmt.Errorf("dhlottery: decode round %d: %w", round, err)
	}
	if raw.ReturnValue != "success" {
		return domain.Draw{}, fmt.Errorf("dhlottery: round %d: %w", round, domain.ErrNotFound)
	}
	d, err := raw.toDomain()
	if err != nil {
		return domain.Draw{}, fmt.Errorf("dhlottery: round %d: %w", round, err)
	}
	return d, nil
}

// EstimateLatestRound returns the newest round drawn at or before now,
// assuming an unbroken weekly schedule.
func EstimateLatestRound(now time.Time) int {
	if now.Before(FirstDrawAt) {
		return 0
	}
	weeks := now.Sub(FirstDrawAt) / (7 * 24 * time.Hour)
	return int(weeks) + 1
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d: %s: %w", resp.StatusCode, truncate(body, 200), domain.ErrUnavailable)
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"acecast/internal/domain"
	"acecast/internal/insight"

	"github.com/valyala/fasthttp"
)

// Client is a typed client for the acecast HTTP API, used by the CLI remote
// mode and by the server tests.
type Client struct {
	baseURL string
	client  *fasthttp.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

type HealthResponse struct {
	Status  string    `json:"status"`
	Matches int       `json:"matches"`
	Players int       `json:"players"`
	MaxDate time.Time `json:"max_date"`
}

type SnapshotResponse struct {
	Player   string          `json:"player"`
	Surface  string          `json:"surface"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

type WinProbResponse struct {
	A       string  `json:"a"`
	B       string  `json:"b"`
	Surface string  `json:"surface"`
	ProbA   float64 `json:"prob_a"`
	ProbB   float64 `json:"prob_b"`
}

type SearchResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return doRequest[HealthResponse](ctx, c, "/healthz")
}

func (c *Client) Profile(ctx context.Context, name, surface string) (*domain.PlayerProfile, error) {
	path := fmt.Sprintf("/v1/players/%s?surface=%s", url.PathEscape(name), url.QueryEscape(surface))
	return doRequest[domain.PlayerProfile](ctx, c, path)
}

func (c *Client) Snapshot(ctx context.Context, name, surface string) (*SnapshotResponse, error) {
	path := fmt.Sprintf("/v1/players/%s/snapshot?surface=%s", url.PathEscape(name), url.QueryEscape(surface))
	return doRequest[SnapshotResponse](ctx, c, path)
}

func (c *Client) WinProbability(ctx context.Context, a, b, surface string) (*WinProbResponse, error) {
	path := fmt.Sprintf("/v1/win-prob?a=%s&b=%s&surface=%s",
		url.QueryEscape(a), url.QueryEscape(b), url.QueryEscape(surface))
	return doRequest[WinProbResponse](ctx, c, path)
}

func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	return doRequest[SearchResponse](ctx, c, "/v1/search?q="+url.QueryEscape(query))
}

func (c *Client) MatchInsight(ctx context.Context, playerA, playerB, surface string) (*insight.MatchInsight, error) {
	body := map[string]string{
		"player_a": playerA,
		"player_b": playerB,
		"surface":  surface,
	}
	return doPost[insight.MatchInsight](ctx, c, "/v1/insight/match", body)
}

func (c *Client) TournamentBrief(ctx context.Context, players []string, surface string, trials int) (*insight.TournamentBrief, error) {
	body := map[string]any{
		"players": players,
		"surface": surface,
		"trials":  trials,
	}
	return doPost[insight.TournamentBrief](ctx, c, "/v1/insight/tournament", body)
}

func doRequest[T any](ctx context.Context, client *Client, path string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(client.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)

	return execute[T](ctx, client, req, resp)
}

func doPost[T any](ctx context.Context, client *Client, path string, body any) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req.SetRequestURI(client.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	return execute[T](ctx, client, req, resp)
}

func execute[T any](ctx context.Context, client *Client, req *fasthttp.Request, resp *fasthttp.Response) (*T, error) {
	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error %d: %s", resp.StatusCode(), apiErr.Error)
		}
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/progress"
	"github.com/claude/repcoach/internal/storage"
)

// HTTPClient implements DataSource by calling the RepCoach REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The user is
// whoever the server identifies the caller as; the userID arguments are
// ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, dst any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func planPath(planID string, rest string) string {
	return "/api/v1/plans/" + url.PathEscape(planID) + rest
}

func (c *HTTPClient) ListPlans(ctx context.Context) ([]storage.PlanSummary, error) {
	var plans []storage.PlanSummary
	if err := c.get(ctx, "/api/v1/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.CatalogExercise, error) {
	var list []models.CatalogExercise
	if err := c.get(ctx, "/api/v1/exercises", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) Progress(ctx context.Context, _ int, planID string, live bool) (progress.Metrics, error) {
	params := url.Values{}
	if live {
		params.Set("live", "1")
	}
	var m progress.Metrics
	if err := c.get(ctx, planPath(planID, "/progress"), params, &m); err != nil {
		return progress.Metrics{}, err
	}
	return m, nil
}

func (c *HTTPClient) CurrentPosition(ctx context.Context, _ int, planID string) (models.Position, error) {
	var pos models.Position
	if err := c.get(ctx, planPath(planID, "/position"), nil, &pos); err != nil {
		return models.Position{}, err
	}
	return pos, nil
}

func (c *HTTPClient) NextDay(ctx context.Context, planID string, weekIndex, dayNumber int) (*models.Position, error) {
	var resp struct {
		Next *models.Position `json:"next"`
	}
	path := planPath(planID, fmt.Sprintf("/weeks/%d/days/%d/next", weekIndex, dayNumber))
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Next, nil
}

func (c *HTTPClient) History(ctx context.Context, _ int, planID, exerciseID string) ([]models.HistoryEntry, error) {
	params := url.Values{}
	if exerciseID != "" {
		params.Set("exercise", exerciseID)
	}
	var entries []models.HistoryEntry
	if err := c.get(ctx, planPath(planID, "/history"), params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

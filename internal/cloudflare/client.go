// Package cloudflare implements the zone-management service capabilities
// against the Cloudflare v4 REST API.
package cloudflare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cfbak/internal/cfbak"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client is a minimal Cloudflare API client covering the reads the backup
// collector needs. It implements cfbak.ZoneAPI.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  cfbak.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a Client authenticating with the given API token.
func NewClient(token string, logger cfbak.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// get issues one API read and returns the result payload verbatim.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	body, status, err := c.raw(ctx, path)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &cfbak.NotFoundError{Resource: "resource", Key: path}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &cfbak.RemoteError{Service: "cloudflare", Op: "GET " + path,
			Err: fmt.Errorf("decoding response (status %d): %w", status, err)}
	}
	if status < 200 || status >= 300 || !env.Success {
		return nil, &cfbak.RemoteError{Service: "cloudflare", Op: "GET " + path,
			Err: fmt.Errorf("status %d: %s", status, env.errorText())}
	}
	return env.Result, nil
}

// raw issues one HTTP GET and returns the body and status. Transport
// failures are wrapped; status handling is up to the caller.
func (c *Client) raw(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, &cfbak.RemoteError{Service: "cloudflare", Op: "GET " + path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("cloudflare request", "path", path)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &cfbak.RemoteError{Service: "cloudflare", Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &cfbak.RemoteError{Service: "cloudflare", Op: "GET " + path,
			Err: fmt.Errorf("reading response: %w", err)}
	}
	return body, resp.StatusCode, nil
}

// ListZones returns every zone visible to the credential.
func (c *Client) ListZones(ctx context.Context) ([]cfbak.Zone, error) {
	raw, err := c.get(ctx, "/zones")
	if err != nil {
		return nil, err
	}
	var zones []cfbak.Zone
	if err := json.Unmarshal(raw, &zones); err != nil {
		return nil, &cfbak.RemoteError{Service: "cloudflare", Op: "GET /zones",
			Err: fmt.Errorf("decoding zones: %w", err)}
	}
	return zones, nil
}

// GetZone reads one zone by identifier.
func (c *Client) GetZone(ctx context.Context, zoneID string) (*cfbak.Zone, error) {
	raw, err := c.get(ctx, "/zones/"+zoneID)
	if err != nil {
		if cfbak.IsNotFound(err) {
			return nil, &cfbak.NotFoundError{Resource: "zone", Key: zoneID}
		}
		return nil, err
	}
	var zone cfbak.Zone
	if err := json.Unmarshal(raw, &zone); err != nil {
		return nil, &cfbak.RemoteError{Service: "cloudflare", Op: "GET /zones/" + zoneID,
			Err: fmt.Errorf("decoding zone: %w", err)}
	}
	return &zone, nil
}

func (c *Client) ListDNSRecords(ctx context.Context, zoneID string) (json.RawMessage, error) {
	return c.get(ctx, "/zones/"+zoneID+"/dns_records")
}

func (c *Client) ListPageRules(ctx context.Context, zoneID string) (json.RawMessage, error) {
	return c.get(ctx, "/zones/"+zoneID+"/pagerules")
}

func (c *Client) ListCustomPages(ctx context.Context, zoneID string) (json.RawMessage, error) {
	return c.get(ctx, "/zones/"+zoneID+"/custom_pages")
}

func (c *Client) ListFirewallRules(ctx context.Context, zoneID string) (json.RawMessage, error) {
	return c.get(ctx, "/zones/"+zoneID+"/firewall/rules")
}

func (c *Client) ListAccessRules(ctx context.Context, zoneID string) (json.RawMessage, error) {
	return c.get(ctx, "/zones/"+zoneID+"/firewall/access_rules/rules")
}

func (c *Client) ListRateLimits(ctx context.Context, zoneID string) (json.RawMessage, error) {
	return c.get(ctx, "/zones/"+zoneID+"/rate_limits")
}

// ListSettings returns the full settings list with each object kept verbatim
// alongside its identifier, so callers can filter without re-encoding.
func (c *Client) ListSettings(ctx context.Context, zoneID string) ([]cfbak.Setting, error) {
	raw, err := c.get(ctx, "/zones/"+zoneID+"/settings")
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &cfbak.RemoteError{Service: "cloudflare", Op: "GET /zones/" + zoneID + "/settings",
			Err: fmt.Errorf("decoding settings: %w", err)}
	}

	settings := make([]cfbak.Setting, 0, len(items))
	for _, item := range items {
		var id struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(item, &id); err != nil {
			return nil, &cfbak.RemoteError{Service: "cloudflare", Op: "GET /zones/" + zoneID + "/settings",
				Err: fmt.Errorf("decoding setting id: %w", err)}
		}
		settings = append(settings, cfbak.Setting{ID: id.ID, Raw: item})
	}
	return settings, nil
}

// ListWorkerRoutes returns the zone's worker route bindings.
func (c *Client) ListWorkerRoutes(ctx context.Context, zoneID string) ([]cfbak.WorkerRoute, error) {
	raw, err := c.get(ctx, "/zones/"+zoneID+"/workers/routes")
	if err != nil {
		return nil, err
	}
	var routes []cfbak.WorkerRoute
	if err := json.Unmarshal(raw, &routes); err != nil {
		return nil, &cfbak.RemoteError{Service: "cloudflare", Op: "GET /zones/" + zoneID + "/workers/routes",
			Err: fmt.Errorf("decoding worker routes: %w", err)}
	}
	return routes, nil
}

// GetWorkerScript downloads one script's source text. Script responses are
// raw JavaScript, not the usual JSON envelope.
func (c *Client) GetWorkerScript(ctx context.Context, zoneID, scriptName string) (string, error) {
	path := "/zones/" + zoneID + "/workers/scripts/" + scriptName
	body, status, err := c.raw(ctx, path)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", &cfbak.NotFoundError{Resource: "worker script", Key: scriptName}
	}
	if status < 200 || status >= 300 {
		return "", &cfbak.RemoteError{Service: "cloudflare", Op: "GET " + path,
			Err: fmt.Errorf("status %d: %s", status, string(body))}
	}
	return string(body), nil
}

var _ cfbak.ZoneAPI = (*Client)(nil)

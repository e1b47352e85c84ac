package listmanagement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"custom-list-skill/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	listsPath      = "/v2/householdlists/"
)

// createListRequest is the body of the create-list call.
type createListRequest struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// listsMetadataResponse is the minimal response shape of the get-lists call.
type listsMetadataResponse struct {
	Lists []domain.List `json:"lists"`
}

// HTTPStatusError captures non-2xx responses from the list service.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("listmanagement: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Factory builds per-request clients. The API endpoint and access token are
// issued by the platform with every request, so a Client never outlives the
// turn it was built for.
type Factory struct {
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Factory)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *Factory) {
		f.httpClient = httpClient
	}
}

// WithTimeout sets the timeout of the default HTTP client. Ignored when
// WithHTTPClient is also given.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Factory) {
		f.timeout = timeout
	}
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		timeout := f.timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		f.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return f
}

// ForRequest returns a client bound to the given API endpoint and bearer token.
func (f *Factory) ForRequest(apiEndpoint, apiAccessToken string) (*Client, error) {
	apiEndpoint = strings.TrimRight(strings.TrimSpace(apiEndpoint), "/")
	if apiEndpoint == "" {
		return nil, errors.New("listmanagement: api endpoint must not be empty")
	}
	if strings.TrimSpace(apiAccessToken) == "" {
		return nil, errors.New("listmanagement: api access token must not be empty")
	}
	return &Client{
		baseURL:    apiEndpoint,
		token:      apiAccessToken,
		httpClient: f.httpClient,
	}, nil
}

// Client calls the household list API for one user.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// resolvedHTTPClient returns the configured HTTP client, or a default with a
// 10s timeout if none was set.
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (c *Client) listsURL() string {
	return c.baseURL + listsPath
}

// CreateList creates a list and returns its metadata. A non-empty
// listVersionToken is sent as If-Match.
func (c *Client) CreateList(ctx context.Context, list domain.List, listVersionToken string) (domain.List, error) {
	name := strings.TrimSpace(list.Name)
	if name == "" {
		return domain.List{}, errors.New("listmanagement: list name must not be empty")
	}
	state := list.State
	if state == "" {
		state = domain.ListStateActive
	}

	body, err := json.Marshal(createListRequest{Name: name, State: state})
	if err != nil {
		return domain.List{}, fmt.Errorf("listmanagement: marshal create request: %w", err)
	}

	url := c.listsURL()
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return domain.List{}, fmt.Errorf("listmanagement: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	if listVersionToken != "" {
		req.Header.Set("If-Match", listVersionToken)
	}

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return domain.List{}, fmt.Errorf("listmanagement: create list failed: %w", err)
	}

	var created domain.List
	if decErr := json.Unmarshal(raw, &created); decErr != nil {
		return domain.List{}, fmt.Errorf("listmanagement: decode create response: %w", decErr)
	}
	return created, nil
}

// GetListsMetadata returns the metadata of every list on the account in the
// order the service reports them.
func (c *Client) GetListsMetadata(ctx context.Context) ([]domain.List, error) {
	url := c.listsURL()
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("listmanagement: create request: %w", reqErr)
	}

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return nil, fmt.Errorf("listmanagement: get lists failed: %w", err)
	}

	var payload listsMetadataResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return nil, fmt.Errorf("listmanagement: decode lists response: %w", decErr)
	}
	return payload.Lists, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

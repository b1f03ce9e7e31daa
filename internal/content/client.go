package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Resource kinds understood by the content store, as URL path segments.
const (
	KindProduct      = "products"
	KindOrder        = "orders"
	KindNotification = "notifications"
	KindUser         = "users"
)

type ListOptions struct {
	// Filters are equality filters keyed by field name.
	Filters map[string]string
	// Sort entries use the store's "field:dir" syntax, e.g. "createdAt:desc".
	Sort []string
	// Limit caps the number of records returned; zero means store default.
	Limit int
}

// Store is the request/response contract every component talks to the content
// store through. *Client is the HTTP implementation.
type Store interface {
	List(ctx context.Context, kind string, opts ListOptions) ([]Record, error)
	Get(ctx context.Context, kind, id string) (Record, error)
	Create(ctx context.Context, kind string, payload map[string]any) (Record, error)
	Update(ctx context.Context, kind, id string, payload map[string]any) (Record, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryOptions

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      DefaultRetryOptions(),
	}
}

// SetToken installs the bearer token attached to subsequent requests. An empty
// token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) List(ctx context.Context, kind string, opts ListOptions) ([]Record, error) {
	query := url.Values{}
	query.Set("populate", "*")
	for field, value := range opts.Filters {
		query.Set(fmt.Sprintf("filters[%s][$eq]", field), value)
	}
	for i, sort := range opts.Sort {
		query.Set(fmt.Sprintf("sort[%d]", i), sort)
	}
	if opts.Limit > 0 {
		query.Set("pagination[limit]", strconv.Itoa(opts.Limit))
	}

	body, err := c.do(ctx, http.MethodGet, "/api/"+kind+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	return NormalizeList(body), nil
}

func (c *Client) Get(ctx context.Context, kind, id string) (Record, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/"+kind+"/"+url.PathEscape(id)+"?populate=*", nil)
	if err != nil {
		if upstream := asUpstream(err); upstream != nil && upstream.Status == http.StatusNotFound {
			return nil, fmt.Errorf("get %s %s: %w", kind, id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}

	return NormalizeOne(body), nil
}

func (c *Client) Create(ctx context.Context, kind string, payload map[string]any) (Record, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/"+kind, wrapData(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}

	return NormalizeOne(body), nil
}

func (c *Client) Update(ctx context.Context, kind, id string, payload map[string]any) (Record, error) {
	body, err := c.do(ctx, http.MethodPut, "/api/"+kind+"/"+url.PathEscape(id), wrapData(payload))
	if err != nil {
		if upstream := asUpstream(err); upstream != nil && upstream.Status == http.StatusNotFound {
			return nil, fmt.Errorf("update %s %s: %w", kind, id, ErrNotFound)
		}
		return nil, fmt.Errorf("update %s %s: %w", kind, id, err)
	}

	return NormalizeOne(body), nil
}

type AuthResponse struct {
	Token string
	User  Record
}

func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/auth/local", map[string]any{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return decodeAuth(body)
}

func (c *Client) Register(ctx context.Context, username, email, password, userType string) (*AuthResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/auth/local/register", map[string]any{
		"username":  username,
		"email":     email,
		"password":  password,
		"user_type": userType,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return decodeAuth(body)
}

// Me fetches the profile behind a token, used to rehydrate a persisted session
// at startup.
func (c *Client) Me(ctx context.Context, token string) (Record, error) {
	body, err := c.doWithToken(ctx, http.MethodGet, "/api/users/me?populate=*", nil, token)
	if err != nil {
		return nil, fmt.Errorf("fetch me: %w", err)
	}

	return NormalizeOne(body), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (any, error) {
	return c.doWithToken(ctx, method, path, payload, c.Token())
}

func (c *Client) doWithToken(ctx context.Context, method, path string, payload any, token string) (any, error) {
	var decoded any

	err := WithRetry(ctx, c.retry, func() error {
		var reqBody io.Reader
		if payload != nil {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("encode payload: %w", err)
			}
			reqBody = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return upstreamFromBody(resp.StatusCode, raw)
		}

		if len(raw) == 0 {
			decoded = nil
			return nil
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return decoded, nil
}

func wrapData(payload map[string]any) map[string]any {
	wrapped := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		wrapped[k] = v
	}
	if _, ok := wrapped["publishedAt"]; !ok {
		wrapped["publishedAt"] = time.Now().UTC().Format(time.RFC3339)
	}
	return map[string]any{"data": wrapped}
}

func upstreamFromBody(status int, raw []byte) *UpstreamError {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return &UpstreamError{Status: status, Message: envelope.Error.Message}
		}
		if envelope.Message != "" {
			return &UpstreamError{Status: status, Message: envelope.Message}
		}
	}
	return &UpstreamError{Status: status}
}

func decodeAuth(body any) (*AuthResponse, error) {
	root, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected auth response shape")
	}

	token, _ := root["jwt"].(string)
	if token == "" {
		return nil, fmt.Errorf("auth response missing token")
	}

	return &AuthResponse{
		Token: token,
		User:  NormalizeOne(root["user"]),
	}, nil
}

func asUpstream(err error) *UpstreamError {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}
	return nil
}

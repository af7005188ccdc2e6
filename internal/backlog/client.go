package backlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"scoreservice.app/review/internal/model"
)

const defaultTimeout = 30 * time.Second

// Config holds everything a Client needs. Nothing is read from the environment.
type Config struct {
	BaseURL        string // Backlog space URL, e.g. https://example.backlog.com
	APIKey         string
	ProjectIDOrKey string // e.g. "PRJ" or "123"
	HTTPClient     *http.Client
	Timeout        time.Duration // Used when HTTPClient is nil, defaults to 30s
}

// Client is a thin client over the Backlog document API.
// It is safe for concurrent use.
type Client struct {
	baseAPIURL     *url.URL
	apiKey         string
	projectIDOrKey string
	httpClient     *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("backlog base url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("backlog api key is required")
	}

	projectIDOrKey := strings.TrimSpace(cfg.ProjectIDOrKey)
	if projectIDOrKey == "" {
		return nil, fmt.Errorf("backlog project id or key is required")
	}

	base := strings.TrimSpace(cfg.BaseURL)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("backlog base url %q is invalid", cfg.BaseURL)
	}
	apiURL, err := parsed.Parse("api/v2/")
	if err != nil {
		return nil, fmt.Errorf("backlog base url %q is invalid", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseAPIURL:     apiURL,
		apiKey:         cfg.APIKey,
		projectIDOrKey: projectIDOrKey,
		httpClient:     httpClient,
	}, nil
}

// documentResponse is the document endpoint payload before content resolution.
type documentResponse struct {
	model.Document
	contentFields
}

func (r *documentResponse) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Document); err != nil {
		return err
	}
	return json.Unmarshal(data, &r.contentFields)
}

// FetchDocument fetches a document and resolves its content, falling back to
// the content endpoint when the document payload carries no body field.
func (c *Client) FetchDocument(ctx context.Context, documentID string) (*model.Document, error) {
	var resp documentResponse
	if err := c.request(ctx, c.documentPath(documentID, ""), &resp); err != nil {
		return nil, err
	}

	doc := resp.Document
	content, field, ok := pickContent(resp.contentFields)
	if !ok {
		var fields contentFields
		if err := c.request(ctx, c.documentPath(documentID, "content"), &fields); err != nil {
			return nil, err
		}
		content, field, ok = pickContent(fields)
	}
	if !ok {
		return nil, &ContentMissingError{DocumentID: documentID}
	}

	slog.DebugContext(ctx, "backlog document fetched",
		"document_id", documentID,
		"content_field", field,
		"content_length", len(content))

	doc.Content = content
	return &doc, nil
}

// FetchChildren lists child summaries sorted by display order. A payload
// that is not a JSON array is treated as no children.
func (c *Client) FetchChildren(ctx context.Context, documentID string) ([]model.DocumentChild, error) {
	var raw json.RawMessage
	if err := c.request(ctx, c.documentPath(documentID, "children"), &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		slog.DebugContext(ctx, "backlog children payload is not an array", "document_id", documentID)
		return []model.DocumentChild{}, nil
	}

	var children []model.DocumentChild
	if err := json.Unmarshal(trimmed, &children); err != nil {
		return nil, &DecodeError{Path: c.documentPath(documentID, "children"), Err: err}
	}

	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Order() < children[j].Order()
	})

	return children, nil
}

func (c *Client) request(ctx context.Context, path string, out any) error {
	u, err := c.baseAPIURL.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return fmt.Errorf("building backlog url: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("building backlog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: redactAPIKey(err, c.apiKey)}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	slog.DebugContext(ctx, "backlog request completed",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteAPIError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Detail:     extractErrorDetail(resp),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

func (c *Client) documentPath(documentID, suffix string) string {
	path := fmt.Sprintf("projects/%s/documents/%s",
		url.PathEscape(c.projectIDOrKey),
		url.PathEscape(documentID))
	if suffix != "" {
		path += "/" + suffix
	}
	return path
}

// statusText returns the reason phrase sent by the server, e.g. "Bad Request".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	if text == "" {
		text = "Unknown error"
	}
	return text
}

// redactAPIKey strips the key from transport errors, which quote the full URL.
func redactAPIKey(err error, apiKey string) error {
	msg := err.Error()
	if apiKey == "" || !strings.Contains(msg, url.QueryEscape(apiKey)) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, url.QueryEscape(apiKey), "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

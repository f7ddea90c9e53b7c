// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Configuration constants for the backend client.
const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8000/api/v1"

	// DefaultTimeout bounds a single request, including reading the body.
	DefaultTimeout = 120 * time.Second

	// DefaultTopK is the retrieval depth used when none is given.
	DefaultTopK = 5

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024
)

// errResponseTooLarge marks a body cut off at MaxResponseSize.
var errResponseTooLarge = fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)

// quoteEscaper escapes a multipart filename the way mime/multipart does.
var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat backend. It is safe for concurrent use once
// configured; the With* builders are meant to be called during setup only.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the structured logger used for request/response logging.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger.Named("api")
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// CHAT
// =============================================================================

// SendMessage posts a text prompt to /chat.
func (c *Client) SendMessage(ctx context.Context, prompt string, opts ChatOptions) (*ChatResponse, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/chat", nil, NewChatRequest(prompt, opts))
	if err != nil {
		return nil, err
	}

	var out ChatResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendAudio uploads an audio file to /chat/audio as multipart form data.
// Only the phone identity and the audio-generation flag travel with the
// upload; model and retrieval settings are not part of this endpoint.
func (c *Client) SendAudio(ctx context.Context, file AudioFile, opts ChatOptions) (*ChatResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := file.Name
	if name == "" {
		name = "audio"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="%s"`, quoteEscaper.Replace(name)))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to write audio part: %w", err)
	}

	if phone := strings.TrimSpace(opts.SenderPhone); phone != "" {
		if err := mw.WriteField("sender_phone", phone); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if opts.GenerateAudio {
		if err := mw.WriteField("generate_audio", "true"); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/audio", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out ChatResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearMemory erases the backend's conversation memory for phone.
func (c *Client) ClearMemory(ctx context.Context, phone string) (*Ack, error) {
	query := url.Values{}
	query.Set("sender_phone", phone)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/clear-memory?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	ack := &Ack{}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ack, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	// A bare string such as "ok" is kept as the message; other scalars carry nothing.
	switch trimmed[0] {
	case '{':
		if err := json.Unmarshal(trimmed, ack); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	case '"':
		if err := json.Unmarshal(trimmed, &ack.Message); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return ack, nil
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// IndexDocuments stores docs in the retrieval index. An empty namespace is
// sent as null.
func (c *Client) IndexDocuments(ctx context.Context, docs []Document, namespace string) (*IndexResponse, error) {
	body := IndexRequest{Documents: make([]Document, 0, len(docs))}
	for _, doc := range docs {
		if doc.Metadata == nil {
			doc.Metadata = map[string]interface{}{}
		}
		body.Documents = append(body.Documents, doc)
	}
	if ns := strings.TrimSpace(namespace); ns != "" {
		body.Namespace = &ns
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "/rag/index", nil, body)
	if err != nil {
		return nil, err
	}

	var out IndexResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a similarity query. topK <= 0 uses DefaultTopK; an empty
// namespace searches all namespaces.
func (c *Client) Search(ctx context.Context, query string, topK int, namespace string) ([]SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("top_k", strconv.Itoa(topK))
	if ns := strings.TrimSpace(namespace); ns != "" {
		params.Set("namespace", ns)
	}

	req, err := c.newJSONRequest(ctx, http.MethodGet, "/rag/search", params, nil)
	if err != nil {
		return nil, err
	}

	var out SearchResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []SearchResult{}
	}
	return out.Results, nil
}

// =============================================================================
// HEALTH
// =============================================================================

// HealthCheck queries the backend liveness endpoint.
func (c *Client) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return nil, err
	}

	var out HealthStatus
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// newJSONRequest builds a request with an optional JSON body and query string.
func (c *Client) newJSONRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logRequest(req)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	c.logResponse(req, resp, time.Since(start))
	failed := resp.StatusCode < 200 || resp.StatusCode >= 300
	switch {
	case errors.Is(err, errResponseTooLarge) && failed:
		return nil, newAPIError(resp.StatusCode, nil)
	case errors.Is(err, errResponseTooLarge):
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	case failed:
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// doJSON executes req and decodes the 2xx body into out.
func (c *Client) doJSON(req *http.Request, out interface{}) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, errResponseTooLarge
	}
	return body, nil
}

// logRequest records method and path only. Bodies and query strings can
// carry phone numbers and are never logged.
func (c *Client) logRequest(req *http.Request) {
	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)
}

func (c *Client) logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("response", fields...)
		return
	}
	c.logger.Info("response", fields...)
}

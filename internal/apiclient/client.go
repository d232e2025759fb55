// Package apiclient talks to the remote HR REST API.
//
// Every screen in the application is backed by this API; the client hides its
// inconsistent response envelopes (see normalize.go) and error shapes
// (see errors.go) behind a small set of calls that return plain records.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 10 << 20

// Client is an HR API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for baseURL (e.g. "https://hr.example.com/api").
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Auth is the outcome of a successful sign-in.
type Auth struct {
	Token string
	User  string
}

// ListParams are forwarded as query parameters. Zero values are omitted.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Sort     string
	Dir      string
	Extra    url.Values
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("limit", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
		if p.Dir != "" {
			q.Set("order", p.Dir)
		}
	}
	for k, vs := range p.Extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return q
}

// ListResult is one normalized list response.
type ListResult struct {
	Items []map[string]any
	Total int  // Server-reported total, or len(Items)
	Paged bool // The server reported a total, so Items is one page
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (Auth, error) {
	body := map[string]string{"username": username, "email": username, "password": password}
	doc, err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, jsonBody(body))
	if err != nil {
		return Auth{}, err
	}
	token := ExtractToken(doc)
	if token == "" {
		return Auth{}, &APIError{Status: http.StatusBadGateway, Message: "login response did not include a token"}
	}
	return Auth{Token: token, User: ExtractUser(doc, username)}, nil
}

// List fetches a collection.
func (c *Client) List(ctx context.Context, token, endpoint string, p ListParams) (ListResult, error) {
	doc, err := c.do(ctx, http.MethodGet, endpoint, token, p.query(), nil)
	if err != nil {
		return ListResult{}, err
	}
	items, total := ExtractList(doc)
	res := ListResult{Items: items, Total: total, Paged: total >= 0}
	if total < 0 {
		res.Total = len(items)
	}
	return res, nil
}

// Get fetches one record.
func (c *Client) Get(ctx context.Context, token, endpoint, id string) (map[string]any, error) {
	doc, err := c.do(ctx, http.MethodGet, joinPath(endpoint, id), token, nil, nil)
	if err != nil {
		return nil, err
	}
	return ExtractObject(doc), nil
}

// Create posts a new record and returns the server's copy.
func (c *Client) Create(ctx context.Context, token, endpoint string, rec map[string]any) (map[string]any, error) {
	doc, err := c.do(ctx, http.MethodPost, endpoint, token, nil, jsonBody(rec))
	if err != nil {
		return nil, err
	}
	return ExtractObject(doc), nil
}

// Update replaces a record.
func (c *Client) Update(ctx context.Context, token, endpoint, id string, rec map[string]any) (map[string]any, error) {
	doc, err := c.do(ctx, http.MethodPut, joinPath(endpoint, id), token, nil, jsonBody(rec))
	if err != nil {
		return nil, err
	}
	return ExtractObject(doc), nil
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, token, endpoint, id string) error {
	_, err := c.do(ctx, http.MethodDelete, joinPath(endpoint, id), token, nil, nil)
	return err
}

// Action posts to an RPC-style path such as /leave-requests/7/approve.
func (c *Client) Action(ctx context.Context, token, path string, body map[string]any) (map[string]any, error) {
	var b *requestBody
	if body != nil {
		b = jsonBody(body)
	}
	doc, err := c.do(ctx, http.MethodPost, path, token, nil, b)
	if err != nil {
		return nil, err
	}
	return ExtractObject(doc), nil
}

// File is an upload part.
type File struct {
	Field    string
	Name     string
	Content  io.Reader
	MimeType string
}

// PostMultipart sends form fields and optional files, e.g. an attendance
// check-in with a selfie and coordinates.
func (c *Client) PostMultipart(ctx context.Context, token, path string, fields map[string]string, files ...File) (map[string]any, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	for _, f := range files {
		if f.Content == nil {
			continue
		}
		part, err := mw.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copy form file %s: %w", f.Field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	doc, err := c.do(ctx, http.MethodPost, path, token, nil, &requestBody{
		reader:      &buf,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return ExtractObject(doc), nil
}

// Raw fetches endpoint and returns the decoded document without list or
// object extraction. Used for tree-shaped payloads.
func (c *Client) Raw(ctx context.Context, token, endpoint string) (any, error) {
	return c.do(ctx, http.MethodGet, endpoint, token, nil, nil)
}

type requestBody struct {
	reader      io.Reader
	contentType string
	err         error
}

func jsonBody(v any) *requestBody {
	data, err := json.Marshal(v)
	return &requestBody{reader: bytes.NewReader(data), contentType: "application/json", err: err}
}

func (c *Client) do(ctx context.Context, method, path, token string, q url.Values, body *requestBody) (any, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		if body.err != nil {
			return nil, fmt.Errorf("encode request: %w", body.err)
		}
		reader = body.reader
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, data)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return decodeJSON(data)
}

func joinPath(endpoint, id string) string {
	return strings.TrimRight(endpoint, "/") + "/" + url.PathEscape(id)
}

// Package siyuan wraps the SiYuan kernel HTTP API used by the web fetcher:
// notebook listing, markdown document creation and plugin storage files.
package siyuan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the kernel address of a local desktop install.
const DefaultBaseURL = "http://127.0.0.1:6806"

const (
	pathListNotebooks   = "/api/notebook/lsNotebooks"
	pathCreateDocWithMd = "/api/filetree/createDocWithMd"
	pathGetFile         = "/api/file/getFile"
	pathPutFile         = "/api/file/putFile"
	pathRemoveFile      = "/api/file/removeFile"
)

// Client defines the kernel operations used by this application. Payloads are
// returned undecoded because their shapes vary between kernel versions.
type Client interface {
	ListNotebooks(ctx context.Context) (json.RawMessage, error)
	CreateDocWithMd(ctx context.Context, req CreateDocRequest) (json.RawMessage, error)
	// GetFile returns the file content, or nil when the file does not exist.
	GetFile(ctx context.Context, path string) ([]byte, error)
	PutFile(ctx context.Context, path string, data []byte) error
	RemoveFile(ctx context.Context, path string) error
}

// CreateDocRequest is the body for /api/filetree/createDocWithMd.
type CreateDocRequest struct {
	Notebook string `json:"notebook"`
	Path     string `json:"path"`
	Markdown string `json:"markdown"`
}

// Envelope wraps every kernel response.
type Envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Error is a kernel response with a non-zero code.
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("siyuan: code %d: %s", e.Code, e.Msg)
}

// Decode unwraps an envelope. A non-zero code becomes *Error; otherwise the
// data payload is returned as-is (possibly empty).
func Decode(body []byte) (json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "siyuan: decode envelope")
	}
	if env.Code != 0 {
		msg := env.Msg
		if msg == "" {
			msg = "Request failed"
		}
		return nil, &Error{Code: env.Code, Msg: msg}
	}
	return env.Data, nil
}

// StoragePath returns the kernel path of a plugin storage entry.
func StoragePath(plugin, key string) string {
	return "/data/storage/petal/" + plugin + "/" + key
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the kernel address.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithToken sets the API token sent as "Authorization: Token <token>".
func WithToken(token string) Option {
	return func(c *httpClient) {
		c.token = strings.TrimSpace(token)
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles outbound calls. A non-positive rps disables it.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewClient creates a kernel client. Calls are throttled to 10 req/s by
// default.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http:    &http.Client{},
		limiter: rate.NewLimiter(10, 10),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ListNotebooks(ctx context.Context) (json.RawMessage, error) {
	data, err := c.postJSON(ctx, pathListNotebooks, struct{}{})
	if err != nil {
		return nil, eris.Wrap(err, "siyuan: list notebooks")
	}
	return data, nil
}

func (c *httpClient) CreateDocWithMd(ctx context.Context, req CreateDocRequest) (json.RawMessage, error) {
	data, err := c.postJSON(ctx, pathCreateDocWithMd, req)
	if err != nil {
		return nil, eris.Wrap(err, "siyuan: create doc")
	}
	return data, nil
}

func (c *httpClient) GetFile(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newJSONRequest(ctx, pathGetFile, map[string]string{"path": path})
	if err != nil {
		return nil, eris.Wrap(err, "siyuan: get file")
	}
	status, body, err := c.do(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "siyuan: get file")
	}

	// The kernel answers 200 with the raw file, and 202 with an envelope
	// when the file cannot be served.
	if status == http.StatusOK {
		return body, nil
	}
	if status == http.StatusAccepted {
		_, derr := Decode(body)
		var kerr *Error
		if errors.As(derr, &kerr) && kerr.Code == http.StatusNotFound {
			return nil, nil
		}
		if derr != nil {
			return nil, eris.Wrap(derr, "siyuan: get file")
		}
		return nil, nil
	}
	return nil, eris.Errorf("siyuan: get file: HTTP %d: %s", status, strings.TrimSpace(string(body)))
}

func (c *httpClient) PutFile(ctx context.Context, path string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"path":    path,
		"isDir":   "false",
		"modTime": strconv.FormatInt(c.now().UnixMilli(), 10),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return eris.Wrap(err, "siyuan: put file: write field")
		}
	}
	fw, err := mw.CreateFormFile("file", fileName(path))
	if err != nil {
		return eris.Wrap(err, "siyuan: put file: create form file")
	}
	if _, err := fw.Write(data); err != nil {
		return eris.Wrap(err, "siyuan: put file: write content")
	}
	if err := mw.Close(); err != nil {
		return eris.Wrap(err, "siyuan: put file: close form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathPutFile, &buf)
	if err != nil {
		return eris.Wrap(err, "siyuan: put file: create request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if _, err := c.doEnvelope(ctx, req); err != nil {
		return eris.Wrap(err, "siyuan: put file")
	}
	return nil
}

func (c *httpClient) RemoveFile(ctx context.Context, path string) error {
	if _, err := c.postJSON(ctx, pathRemoveFile, map[string]string{"path": path}); err != nil {
		return eris.Wrap(err, "siyuan: remove file")
	}
	return nil
}

func (c *httpClient) postJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	req, err := c.newJSONRequest(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return c.doEnvelope(ctx, req)
}

func (c *httpClient) newJSONRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, eris.Wrap(err, "marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *httpClient) doEnvelope(ctx context.Context, req *http.Request) (json.RawMessage, error) {
	status, body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, eris.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
	}
	return Decode(body)
}

func (c *httpClient) do(ctx context.Context, req *http.Request) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, eris.Wrap(err, "rate limit")
		}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, eris.Wrap(err, "read response body")
	}
	return resp.StatusCode, body, nil
}

func fileName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

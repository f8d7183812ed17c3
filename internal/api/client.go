// Package api wraps the academy backend's HTTP endpoints. Each method
// issues exactly one request and classifies the outcome as success, a
// server-reported failure (ServerError) or a transport failure
// (ErrUnreachable). It performs no input validation and holds no state
// beyond the connection settings; validation and caching live in the
// service layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"alsun-go/internal/model"
)

// Client talks to the academy backend.
type Client struct {
	baseURL  string // e.g. https://host/api
	fileBase string // e.g. https://host, for stored file retrieval
	http     *http.Client
	upload   *http.Client
	logger   *slog.Logger
}

// New creates a Client for the given API base URL. timeout applies to
// reads and metadata writes, uploadTimeout to file uploads.
// logger may be nil.
func New(baseURL string, timeout, uploadTimeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		fileBase: u.Scheme + "://" + u.Host,
		http:     &http.Client{Timeout: timeout},
		upload:   &http.Client{Timeout: uploadTimeout},
		logger:   logger,
	}, nil
}

// FileURL returns the absolute URL for a stored file path.
func (c *Client) FileURL(filePath string) string {
	return c.fileBase + "/" + strings.TrimPrefix(filePath, "/")
}

// Login authenticates the given code/password pair and returns the user
// snapshot the backend reports.
func (c *Client) Login(ctx context.Context, code, password string) (model.User, error) {
	var user model.User
	err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api.php?table=users&action=login",
		map[string]string{"code": code, "password": password}, &user, "login")
	return user, err
}

// ListContent fetches content records. Empty department or division
// fetches unscoped.
func (c *Client) ListContent(ctx context.Context, department, division string) ([]model.Content, error) {
	var items []model.Content
	err := c.doJSON(ctx, http.MethodGet, c.scopedURL("content", department, division), nil, &items, "list content")
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UploadContent posts the file and its metadata as a multipart form.
// This is the only call using the longer upload timeout.
func (c *Client) UploadContent(ctx context.Context, req model.UploadRequest) error {
	f, err := os.Open(req.FilePath)
	if err != nil {
		return fmt.Errorf("opening upload file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"title":       req.Title,
		"uploaded_by": req.UploadedBy,
		"department":  req.Department,
		"division":    req.Division,
		"description": req.Description,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("writing form field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("file", filepath.Base(req.FilePath))
	if err != nil {
		return fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("reading upload file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload.php", &body)
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.upload.Do(httpReq)
	if err != nil {
		return transportErr("upload content", err)
	}
	defer resp.Body.Close()
	c.logger.Debug("upload content response", "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return c.serverError(resp)
	}
	return nil
}

// DeleteContent removes a content record by id.
func (c *Client) DeleteContent(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/api.php?table=content",
		map[string]string{"id": id}, nil, "delete content")
}

// ListMessages fetches chat messages. Empty department or division
// fetches unscoped.
func (c *Client) ListMessages(ctx context.Context, department, division string) ([]model.Message, error) {
	var msgs []model.Message
	err := c.doJSON(ctx, http.MethodGet, c.scopedURL("messages", department, division), nil, &msgs, "list messages")
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts a fully composed message. The id and timestamp are
// client-generated by the caller; the backend requires both.
func (c *Client) SendMessage(ctx context.Context, msg model.Message) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/api.php?table=messages", msg, nil, "send message")
}

// ListUsers fetches all user accounts.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/api.php?table=users&action=all", nil, &users, "list users")
	if err != nil {
		return nil, err
	}
	return users, nil
}

// AddUser creates a user account.
func (c *Client) AddUser(ctx context.Context, u model.NewUser) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/api.php?table=users&action=add", u, nil, "add user")
}

// DeleteUser removes a user account by code.
func (c *Client) DeleteUser(ctx context.Context, code string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/api.php?table=users",
		map[string]string{"code": code}, nil, "delete user")
}

// FetchText retrieves a stored text file's contents for the text viewer.
func (c *Client) FetchText(ctx context.Context, filePath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FileURL(filePath), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportErr("fetch text", err)
	}
	defer resp.Body.Close()
	c.logger.Debug("fetch text response", "status", resp.StatusCode, "path", filePath)

	if resp.StatusCode != http.StatusOK {
		return "", c.serverError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportErr("fetch text", err)
	}
	return string(data), nil
}

// scopedURL appends department/division query parameters when both are
// present; a missing scope fetches everything.
func (c *Client) scopedURL(table, department, division string) string {
	u := c.baseURL + "/api.php?table=" + table
	if department != "" && division != "" {
		u += "&department=" + url.QueryEscape(department) + "&division=" + url.QueryEscape(division)
	}
	return u
}

// doJSON issues a single JSON request. payload may be nil (no body);
// out may be nil (response body ignored beyond status classification).
func (c *Client) doJSON(ctx context.Context, method, rawURL string, payload, out any, op string) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportErr(op, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("backend response", "op", op, "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w", op, c.serverError(resp))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			// A 200 with an unparseable body is indistinguishable from a
			// broken connection for the caller: treat it as transport.
			return transportErr(op, err)
		}
	}
	return nil
}

// serverError extracts the backend's {error} message when the body is
// parseable JSON; otherwise the message stays empty.
func (c *Client) serverError(resp *http.Response) error {
	se := &ServerError{StatusCode: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		se.Message = payload.Error
	}
	return se
}

// Package client is the HTTP client for the task board API. It speaks the
// multipart form protocol the server expects and satisfies board.TaskService.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"taskboard/board"
	"taskboard/domain"
)

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Message string
	Errors  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Errors))
	for field, msg := range e.Errors {
		if msg != "" {
			parts = append(parts, field+": "+msg)
		}
	}
	return fmt.Sprintf("server returned %d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) List(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.doJSON(ctx, http.MethodGet, "/tasks", nil, "", http.StatusOK, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) Get(ctx context.Context, id string) (domain.Task, error) {
	var task domain.Task
	err := c.doJSON(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, "", http.StatusOK, &task)
	return task, err
}

func (c *Client) Create(ctx context.Context, draft board.Draft) (domain.Task, error) {
	body, contentType, err := encodeDraft(draft)
	if err != nil {
		return domain.Task{}, err
	}
	var task domain.Task
	err = c.doJSON(ctx, http.MethodPost, "/tasks", body, contentType, http.StatusCreated, &task)
	return task, err
}

func (c *Client) Update(ctx context.Context, id string, draft board.Draft) (domain.Task, error) {
	body, contentType, err := encodeDraft(draft)
	if err != nil {
		return domain.Task{}, err
	}
	var task domain.Task
	err = c.doJSON(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), body, contentType, http.StatusOK, &task)
	return task, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, "", http.StatusNoContent, nil)
}

// Download streams the task's attachment. The returned name comes from the
// Content-Disposition header. The caller owns closing the reader.
func (c *Client) Download(ctx context.Context, taskID string) (string, io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/files/"+url.PathEscape(taskID), nil)
	if err != nil {
		return "", nil, fmt.Errorf("could not build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("could not reach server: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return "", nil, decodeError(resp)
	}
	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return name, resp.Body, nil
}

// doJSON performs one request and decodes a JSON body into out when the
// status matches want. Any other status becomes an APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, contentType string, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := sonic.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
		apiErr.Errors = envelope.Errors
	}
	return apiErr
}

// encodeDraft builds the multipart form the server expects. A new upload
// goes out as a file part; otherwise any existing attachment reference is
// resubmitted as a plain text field, which the server treats as "keep
// nothing uploaded".
func encodeDraft(draft board.Draft) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":       draft.Title,
		"description": draft.Description,
		"status":      string(draft.Status),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("could not write form field %s: %w", name, err)
		}
	}
	switch {
	case draft.AttachPath != "":
		f, err := os.Open(draft.AttachPath)
		if err != nil {
			return nil, "", fmt.Errorf("could not open attachment: %w", err)
		}
		defer f.Close()
		part, err := w.CreateFormFile("file", filepath.Base(draft.AttachPath))
		if err != nil {
			return nil, "", fmt.Errorf("could not create file part: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("could not copy attachment: %w", err)
		}
	case draft.FileRef != "":
		if err := w.WriteField("file", draft.FileRef); err != nil {
			return nil, "", fmt.Errorf("could not write file reference: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("could not finish form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

package client

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	json "github.com/bytedance/sonic"
)

// Envelope is the response wrapper every API endpoint returns.
type Envelope struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Data    stdjson.RawMessage `json:"data"`
}

// ok reports whether the envelope signals success. Servers send 0 or the
// HTTP-style 2xx code.
func (e *Envelope) ok() bool {
	return e.Code == 0 || (e.Code >= 200 && e.Code < 300)
}

// Call sends body as JSON, unwraps the response envelope and decodes its
// data into out. body and out may be nil.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.exchange(req, out)
}

// File is one file part of a multipart request.
type File struct {
	Field   string
	Name    string
	Content io.Reader
}

// Form is a multipart/form-data request body.
type Form struct {
	Fields map[string]string
	Files  []File
}

// CallMultipart sends form as multipart/form-data and decodes the envelope
// data into out.
func (c *Client) CallMultipart(ctx context.Context, method, path string, form Form, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range form.Fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}
	for _, f := range form.Files {
		part, err := writer.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return fmt.Errorf("create file part %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("copy file %s: %w", f.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.exchange(req, out)
}

func (c *Client) exchange(req *http.Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env Envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Class:      ClassifyStatus(resp.StatusCode),
		}
		if decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("unmarshal response: %w", decodeErr)
	}

	if !env.ok() {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Class:      ErrorClassClient,
			Message:    env.Message,
		}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unmarshal response data: %w", err)
	}
	return nil
}

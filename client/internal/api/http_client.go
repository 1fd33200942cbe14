package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type (
	Params struct {
		Method      string
		Path        string
		Body        interface{}
		Response    interface{}
		QueryParams map[string]string
		Headers     map[string]string
	}

	Client interface {
		Do(ctx context.Context, param Params) error
		Download(ctx context.Context, param Params) (*Download, error)
		Stream(ctx context.Context, param Params) (io.ReadCloser, error)
	}

	// Download is an open response body together with the name the server
	// suggested for it.
	Download struct {
		Content  io.ReadCloser
		FileName string
		Size     int64
	}

	client struct {
		httpClient *http.Client
		baseUrl    string
	}
)

func NewClient(host string) Client {
	if !strings.HasSuffix(host, "/") {
		host += "/"
	}
	if !strings.HasSuffix(host, "v1/") {
		host += "v1/"
	}

	return &client{
		httpClient: &http.Client{},
		baseUrl:    host,
	}
}

func (c client) Do(ctx context.Context, param Params) error {
	resp, err := c.send(ctx, param)
	if err != nil {
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp.StatusCode, responseBody)
	}

	if param.Response != nil {
		if err := json.Unmarshal(responseBody, param.Response); err != nil {
			return err
		}
	}
	return nil
}

func (c client) Download(ctx context.Context, param Params) (*Download, error) {
	resp, err := c.send(ctx, param)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, c.parseError(resp.StatusCode, body)
	}

	return &Download{
		Content:  resp.Body,
		FileName: fileName(resp.Header.Get("Content-Disposition")),
		Size:     resp.ContentLength,
	}, nil
}

func (c client) Stream(ctx context.Context, param Params) (io.ReadCloser, error) {
	resp, err := c.send(ctx, param)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, c.parseError(resp.StatusCode, body)
	}
	return resp.Body, nil
}

func (c client) send(ctx context.Context, param Params) (*http.Response, error) {
	requestUrl, err := url.Parse(c.baseUrl + param.Path)
	if err != nil {
		return nil, err
	}

	if len(param.QueryParams) > 0 {
		values := url.Values{}
		for k, v := range param.QueryParams {
			values.Add(k, v)
		}
		requestUrl.RawQuery = values.Encode()
	}

	var body io.Reader
	if param.Body != nil {
		bodyBin, err := json.Marshal(param.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(bodyBin)
	}

	req, err := http.NewRequestWithContext(ctx, param.Method, requestUrl.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range param.Headers {
		req.Header.Set(k, v)
	}
	return c.httpClient.Do(req)
}

func (c client) parseError(status int, b []byte) error {
	var errorResponse struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(b, &errorResponse); err != nil || errorResponse.Message == "" {
		return fmt.Errorf("server responded with %s", http.StatusText(status))
	}

	msg := errorResponse.Message
	if errorResponse.Detail != "" {
		msg += ": " + errorResponse.Detail
	}
	return &Error{Status: status, Code: errorResponse.Code, err: errors.New(msg)}
}

func fileName(disposition string) string {
	_, name, found := strings.Cut(disposition, "filename=")
	if !found {
		return ""
	}
	return strings.Trim(name, `"`)
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

const platformMaxRetries = 3

// platformClient is the HTTP plumbing shared by the Lichess and Chess.com
// fetchers.
type platformClient struct {
	baseURL    string
	client     *fasthttp.Client
	timeout    time.Duration
	retryDelay time.Duration
}

func newPlatformClient(baseURL string, timeout time.Duration) platformClient {
	return platformClient{
		baseURL: baseURL,
		client: &fasthttp.Client{
			Name:                "rookify",
			MaxConnsPerHost:     16,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		timeout:    timeout,
		retryDelay: time.Second,
	}
}

// doRequest GETs url and returns the body. Transport failures and 5xx
// answers are retried; 404 means the user does not exist.
func doRequest(ctx context.Context, c platformClient, url, accept string) ([]byte, error) {
	var lastErr error

	for i := 0; i < platformMaxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(c.retryDelay * time.Duration(i)):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", apperrors.ErrPlatformUnavailable, ctx.Err())
			}
		}

		body, status, err := c.get(ctx, url, accept)
		switch {
		case err != nil:
			lastErr = err
			continue
		case status == fasthttp.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", apperrors.ErrGameNotFound, url)
		case status == fasthttp.StatusTooManyRequests || status >= 500:
			lastErr = fmt.Errorf("server error: %d", status)
			continue
		case status != fasthttp.StatusOK:
			return nil, fmt.Errorf("%w: unexpected status %d from %s", apperrors.ErrPlatformUnavailable, status, url)
		}
		return body, nil
	}

	return nil, fmt.Errorf("%w: max retries exceeded: %v", apperrors.ErrPlatformUnavailable, lastErr)
}

func (c platformClient) get(ctx context.Context, url, accept string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", accept)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func doJSON[T any](ctx context.Context, c platformClient, url string) (*T, error) {
	body, err := doRequest(ctx, c, url, "application/json")
	if err != nil {
		return nil, err
	}
	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", apperrors.ErrPlatformUnavailable, url, err)
	}
	return &result, nil
}

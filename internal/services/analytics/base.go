package analytics

import (
	"context"
	"fmt"
	"time"

	xhttp "SeriesPulse/pkg/http"
)

// HTTPServiceBase provides a DRY foundation for collaborator HTTP clients.
// It centralizes client construction, bearer auth and JSON POST request handling.
type HTTPServiceBase struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
	backoff time.Duration
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL.
func NewHTTPServiceBase(baseURL, apiKey string, timeout time.Duration, opts ...xhttp.ClientOption) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPServiceBase{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)...),
		backoff: 200 * time.Millisecond,
	}
}

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("http client not initialized")
	}
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if b.apiKey != "" {
		headers["Authorization"] = "Bearer " + b.apiKey
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: headers,
		Body:    payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s%s: %w", b.baseURL, path, err)
	}
	return nil
}

// PostJSONWithRetry posts JSON with up to `attempts` tries. Only transport errors and
// 429/5xx responses are retried, with linear backoff.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.PostJSON(ctx, path, payload, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.PostJSON(ctx, path, payload, dest)
		if err == nil || !xhttp.IsRetryable(err) || i == attempts {
			return err
		}
		select {
		case <-time.After(time.Duration(i) * b.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Configured reports whether the service has credentials.
func (b *HTTPServiceBase) Configured() bool { return b.apiKey != "" }

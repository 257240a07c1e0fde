// Package fetch resolves media URLs to their final location by
// following redirects, so dynamic image endpoints can be handed to the
// Bot API as a stable direct link.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/yuweiho/tg-replyhub-go/internal/errors"
)

// Resolver follows redirects on a URL with a bounded timeout.
// Concurrent resolutions of the same URL are collapsed into one
// outbound request.
type Resolver struct {
	client *http.Client
	group  singleflight.Group
}

// NewResolver creates a Resolver. timeout bounds the whole redirect
// chain, not individual hops.
func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Resolve follows redirects and returns the final URL. Timeouts and
// error statuses are reported as errors; the caller treats them as a
// dispatch failure, never a hang.
func (r *Resolver) Resolve(ctx context.Context, url string) (string, error) {
	result, err, _ := r.group.Do(url, func() (any, error) {
		return r.resolve(ctx, url)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (r *Resolver) resolve(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create resolve request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("resolve %s: %w", url, apperrors.ErrTimeout)
		}
		return "", fmt.Errorf("resolve %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("resolve %s: unexpected status %d", url, resp.StatusCode)
	}

	// The client follows redirects itself; the request attached to the
	// response carries the final URL.
	return resp.Request.URL.String(), nil
}

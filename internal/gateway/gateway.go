// Package gateway is the single path for outbound registry requests. JSON
// resources are served from a time-bounded cache when fresh and fetched,
// stored and returned otherwise. Failed fetches never touch the cache and
// are never retried here.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/sammcj/mcp-pubdev/internal/cache"
	"github.com/sammcj/mcp-pubdev/internal/utils/httpclient"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	// maxBodySize caps registry response bodies
	maxBodySize = 10 * 1024 * 1024

	// maxFetchDuration bounds a shared fetch once it no longer follows any
	// caller's context
	maxFetchDuration = 60 * time.Second
)

// Locator describes one outbound request
type Locator struct {
	URL    string
	Header http.Header
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the response carries a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Validator is implemented by payload schemas that can check their own shape
type Validator interface {
	Validate() error
}

// Gateway fronts the registry transport with a freshness cache
type Gateway struct {
	client httpclient.Doer
	store  *cache.Cache
	logger *logrus.Logger
	group  singleflight.Group
}

// New creates a gateway. A nil store gets a cache with the default TTL.
func New(client httpclient.Doer, store *cache.Cache, logger *logrus.Logger) *Gateway {
	if store == nil {
		store = cache.NewCache(cache.DefaultTTL)
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Gateway{
		client: client,
		store:  store,
		logger: logger,
	}
}

// Resolve returns the JSON payload for key, fetching loc only when no fresh
// entry exists. Concurrent misses for the same key share a single fetch.
func (g *Gateway) Resolve(ctx context.Context, key string, loc Locator) (json.RawMessage, error) {
	return g.resolve(ctx, key, loc, nil)
}

// ResolveInto resolves key and decodes the payload into dst. When dst
// implements Validator its Validate method must succeed. A payload that
// fails either step is not cached.
func (g *Gateway) ResolveInto(ctx context.Context, key string, loc Locator, dst any) error {
	payload, err := g.resolve(ctx, key, loc, func(payload json.RawMessage) error {
		return decodePayload(loc.URL, payload, newLike(dst))
	})
	if err != nil {
		return err
	}
	return decodePayload(loc.URL, payload, dst)
}

// resolve serves key from the store or fetches it. accept, when set, must
// approve a fetched payload before it is stored. The fetch ignores the
// caller's cancellation; each caller stops waiting when its own ctx is done.
func (g *Gateway) resolve(ctx context.Context, key string, loc Locator, accept func(json.RawMessage) error) (json.RawMessage, error) {
	if key == "" {
		return nil, errors.New("cache key must not be empty")
	}

	if entry, ok := g.store.Get(key); ok {
		g.logger.WithFields(logrus.Fields{
			"key": key,
			"age": entry.Age(g.store.Now()).String(),
		}).Debug("Registry cache hit")
		return entry.Payload, nil
	}

	results := g.group.DoChan(key, func() (any, error) {
		if entry, ok := g.store.Get(key); ok {
			return entry.Payload, nil
		}

		g.logger.WithFields(logrus.Fields{
			"key": key,
			"url": loc.URL,
		}).Debug("Registry cache miss")

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), maxFetchDuration)
		defer cancel()

		payload, err := g.fetchJSON(fetchCtx, loc)
		if err != nil {
			return nil, err
		}
		if accept != nil {
			if err := accept(payload); err != nil {
				return nil, err
			}
		}

		g.store.Set(key, payload)
		g.logger.WithFields(logrus.Fields{
			"key":     key,
			"entries": g.store.Len(),
		}).Debug("Registry payload cached")
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{URL: loc.URL, Err: ctx.Err()}
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		if result.Shared {
			g.logger.WithField("key", key).Debug("Registry fetch shared with concurrent caller")
		}
		return result.Val.(json.RawMessage), nil
	}
}

func decodePayload(url string, payload json.RawMessage, dst any) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return &FetchError{URL: url, Err: fmt.Errorf("%w: %v", ErrInvalidPayload, err)}
	}

	if v, ok := dst.(Validator); ok {
		if err := v.Validate(); err != nil {
			return &FetchError{URL: url, Err: fmt.Errorf("%w: %v", ErrInvalidPayload, err)}
		}
	}

	return nil
}

// newLike returns a fresh value of the type dst points to, so a payload can
// be checked without writing into the caller's destination
func newLike(dst any) any {
	t := reflect.TypeOf(dst)
	if t == nil || t.Kind() != reflect.Pointer {
		return dst
	}
	return reflect.New(t.Elem()).Interface()
}

// FetchDocument performs an uncached request and returns the response
// whatever its status. Only transport failures are errors.
func (g *Gateway) FetchDocument(ctx context.Context, loc Locator) (*Response, error) {
	return g.do(ctx, loc)
}

func (g *Gateway) fetchJSON(ctx context.Context, loc Locator) (json.RawMessage, error) {
	resp, err := g.do(ctx, loc)
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		g.logger.WithFields(logrus.Fields{
			"url":        loc.URL,
			"statusCode": resp.StatusCode,
		}).Warn("Unexpected status code from registry")
		return nil, &FetchError{URL: loc.URL, StatusCode: resp.StatusCode}
	}

	if !json.Valid(resp.Body) {
		return nil, &FetchError{URL: loc.URL, StatusCode: resp.StatusCode, Err: ErrMalformedResponse}
	}

	return json.RawMessage(resp.Body), nil
}

func (g *Gateway) do(ctx context.Context, loc Locator) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: loc.URL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for name, values := range loc.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"url":   loc.URL,
			"error": err.Error(),
		}).Error("Failed to send request")
		return nil, &FetchError{URL: loc.URL, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			g.logger.WithError(err).Debug("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: loc.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	g.logger.WithFields(logrus.Fields{
		"url":        loc.URL,
		"statusCode": resp.StatusCode,
		"bytes":      len(body),
	}).Debug("Registry request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

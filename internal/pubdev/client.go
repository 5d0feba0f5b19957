// Package pubdev reads the pub.dev package registry through the caching
// gateway and decodes responses into partial schemas.
package pubdev

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sammcj/mcp-pubdev/internal/gateway"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the public pub.dev registry
	DefaultBaseURL = "https://pub.dev"

	// DefaultUserAgent identifies this server to the registry
	DefaultUserAgent = "MCP-PubDev-Server/1.0.0"

	// MaxDocumentLength caps returned documentation, in characters
	MaxDocumentLength = 5000
)

// SortOrders lists the search orders accepted by the registry
var SortOrders = []string{"top", "text", "created", "updated", "popularity", "points", "likes"}

// Cache keys for each registry resource
func PackageKey(name string) string  { return "package-" + name }
func VersionsKey(name string) string { return "versions-" + name }
func ScoreKey(name string) string    { return "score-" + name }
func SearchKey(query, sort string, page int) string {
	return fmt.Sprintf("search-%s-%s-%d", query, sort, page)
}

// Client issues pub.dev requests through a gateway
type Client struct {
	gateway   *gateway.Gateway
	extractor *TextExtractor
	baseURL   string
	userAgent string
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another registry host, such as a test server
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// NewClient creates a registry client
func NewClient(gw *gateway.Gateway, opts ...Option) *Client {
	c := &Client{
		gateway:   gw,
		extractor: NewTextExtractor(),
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the registry host in use
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Package fetches package metadata including the latest version
func (c *Client) Package(ctx context.Context, name string) (*PackageData, error) {
	var data PackageData
	if err := c.gateway.ResolveInto(ctx, PackageKey(name), c.jsonLocator("/api/packages/%s", name), &data); err != nil {
		return nil, packageError(name, err)
	}
	return &data, nil
}

// Versions fetches the package's version list in registry order
func (c *Client) Versions(ctx context.Context, name string) (*VersionList, error) {
	var list VersionList
	if err := c.gateway.ResolveInto(ctx, VersionsKey(name), c.jsonLocator("/api/packages/%s/versions", name), &list); err != nil {
		return nil, packageError(name, err)
	}
	return &list, nil
}

// Score fetches the package's points, likes and popularity
func (c *Client) Score(ctx context.Context, name string) (*Score, error) {
	var score Score
	if err := c.gateway.ResolveInto(ctx, ScoreKey(name), c.jsonLocator("/api/packages/%s/score", name), &score); err != nil {
		return nil, packageError(name, err)
	}
	return &score, nil
}

// Search queries the registry. Sort must be one of SortOrders and page is 1-based.
func (c *Client) Search(ctx context.Context, query, sort string, page int) (*SearchResult, error) {
	if !isSortOrder(sort) {
		return nil, &InvalidSortError{Sort: sort}
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", sort)
	params.Set("page", strconv.Itoa(page))

	loc := c.locator(c.baseURL+"/api/search?"+params.Encode(), "application/json")

	var result SearchResult
	if err := c.gateway.ResolveInto(ctx, SearchKey(query, sort, page), loc, &result); err != nil {
		return nil, fmt.Errorf("search for %q failed: %w", query, err)
	}
	return &result, nil
}

// Documentation fetches a documentation page. An empty version means latest.
// A page the registry does not serve is reported as unavailable, not as an error.
func (c *Client) Documentation(ctx context.Context, logger *logrus.Logger, name, version string, docType DocType) (*Document, error) {
	if !docType.Valid() {
		return nil, &UnsupportedDocTypeError{DocType: string(docType)}
	}

	docURL := c.documentURL(name, version, docType)
	resp, err := c.gateway.FetchDocument(ctx, c.locator(docURL, "text/html"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documentation: %w", err)
	}

	doc := &Document{
		Type:      docType,
		URL:       docURL,
		Available: resp.OK(),
	}
	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		doc.LastModified = &lastModified
	}

	if !resp.OK() {
		doc.Content = fmt.Sprintf("%s not available for this package/version", docType.Label())
		return doc, nil
	}

	content := string(resp.Body)
	if docType != APIDocs {
		content, err = c.extractor.Extract(logger, content)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch documentation: %w", err)
		}
	}
	doc.Content, doc.Truncated = truncate(content, MaxDocumentLength)

	return doc, nil
}

func (c *Client) documentURL(name, version string, docType DocType) string {
	escaped := url.PathEscape(name)
	if docType == APIDocs {
		if version == "" {
			version = "latest"
		}
		return fmt.Sprintf("%s/documentation/%s/%s/", c.baseURL, escaped, url.PathEscape(version))
	}

	base := fmt.Sprintf("%s/packages/%s", c.baseURL, escaped)
	if version != "" {
		base = fmt.Sprintf("%s/versions/%s", base, url.PathEscape(version))
	}
	return base + "/" + string(docType)
}

func (c *Client) jsonLocator(pathFormat, name string) gateway.Locator {
	return c.locator(c.baseURL+fmt.Sprintf(pathFormat, url.PathEscape(name)), "application/json")
}

func (c *Client) locator(rawURL, accept string) gateway.Locator {
	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	header.Set("Accept", accept)
	return gateway.Locator{URL: rawURL, Header: header}
}

func packageError(name string, err error) error {
	if gateway.IsNotFound(err) {
		return fmt.Errorf("package %s not found: %w", name, err)
	}
	return err
}

func isSortOrder(sort string) bool {
	return slices.Contains(SortOrders, sort)
}

// truncate shortens s to at most limit characters
func truncate(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:limit]), true
}

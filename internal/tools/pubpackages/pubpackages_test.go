package pubpackages

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pubdev/internal/cache"
	"github.com/sammcj/mcp-pubdev/internal/gateway"
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const providerPackage = `{
  "name": "provider",
  "latest": {
    "version": "6.1.2",
    "published": "2024-02-20T10:00:00.000Z",
    "pubspec": {
      "name": "provider",
      "version": "6.1.2",
      "description": "A wrapper around InheritedWidget to make them easier to use and more reusable.",
      "homepage": "https://github.com/rrousselGit/provider",
      "topics": ["state-management"],
      "dependencies": {"collection": "^1.15.0", "flutter": {"sdk": "flutter"}, "nested": "^1.0.0"},
      "dev_dependencies": {"mockito": "^5.0.0"}
    }
  }
}`

const providerScore = `{"grantedPoints":150,"maxPoints":160,"likeCount":10000,"popularityScore":0.99,"downloadCount30Days":3000000,"tags":["sdk:flutter"]}`

// newest first
const providerVersions = `{
  "name": "provider",
  "versions": [
    {"version": "6.1.2", "published": "2024-02-20T10:00:00.000Z", "pubspec": {"description": "latest", "dependencies": {"collection": "^1.15.0", "flutter": {"sdk": "flutter"}, "nested": "^1.0.0"}, "dev_dependencies": {"mockito": "^5.0.0"}}},
    {"version": "6.1.1", "published": "2023-10-01T10:00:00.000Z", "retracted": true, "pubspec": {"dependencies": {"collection": "^1.15.0", "flutter": {"sdk": "flutter"}, "nested": "^1.0.0"}}},
    {"version": "6.0.5", "published": "2022-12-01T10:00:00.000Z", "pubspec": {"dependencies": {"collection": "^1.15.0", "flutter": {"sdk": "flutter"}, "nested": "^1.0.0"}}},
    {"version": "5.0.0", "published": "2021-02-01T10:00:00.000Z", "pubspec": {"dependencies": {"collection": "^1.0.0", "flutter": {"sdk": "flutter"}, "meta": "^1.1.0", "nested": "^1.0.0"}, "dev_dependencies": {"mockito": "^4.0.0", "pedantic": "^1.0.0"}}}
  ]
}`

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type route struct {
	status int
	body   string
}

type fixture struct {
	t      *testing.T
	server *httptest.Server
	clock  *fakeClock
	client *pubdev.Client
	logger *logrus.Logger

	mu     sync.Mutex
	routes map[string]route
	hits   map[string]int
	query  map[string]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		clock:  &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		routes: make(map[string]route),
		hits:   make(map[string]int),
		query:  make(map[string]string),
	}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		f.query[r.URL.Path] = r.URL.RawQuery
		rt, ok := f.routes[r.URL.Path]
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if rt.status != 0 {
			w.WriteHeader(rt.status)
		}
		_, _ = w.Write([]byte(rt.body))
	}))
	t.Cleanup(f.server.Close)

	f.logger = logrus.New()
	f.logger.SetOutput(io.Discard)

	store := cache.NewCache(cache.DefaultTTL, cache.WithClock(f.clock.Now))
	gw := gateway.New(f.server.Client(), store, f.logger)
	f.client = pubdev.NewClient(gw, pubdev.WithBaseURL(f.server.URL))
	return f
}

func (f *fixture) serve(path, body string) {
	f.mu.Lock()
	f.routes[path] = route{body: body}
	f.mu.Unlock()
}

func (f *fixture) fail(path string, status int) {
	f.mu.Lock()
	f.routes[path] = route{status: status}
	f.mu.Unlock()
}

func (f *fixture) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// call runs tool through the error envelope and returns the result text
func (f *fixture) call(tool tools.Tool, args map[string]any) string {
	f.t.Helper()
	result, _ := tools.Invoke(context.Background(), f.logger, tool, args)
	require.NotNil(f.t, result)
	require.Len(f.t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(f.t, ok)
	return text.Text
}

func (f *fixture) callJSON(tool tools.Tool, args map[string]any, dst any) {
	f.t.Helper()
	text := f.call(tool, args)
	require.False(f.t, strings.HasPrefix(text, tools.ErrorPrefix), text)
	require.NoError(f.t, json.Unmarshal([]byte(text), dst))
}

func TestAll_ToolNames(t *testing.T) {
	var names []string
	for _, tool := range All(nil) {
		names = append(names, tool.Definition().Name)
	}
	assert.Equal(t, []string{
		"get_package_info",
		"check_package_updates",
		"get_package_versions",
		"get_documentation_changes",
		"compare_package_versions",
		"search_packages",
	}, names)
}

func TestPackageInfo(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/packages/provider", providerPackage)
	f.serve("/api/packages/provider/score", providerScore)

	text := f.call(NewPackageInfoTool(f.client), map[string]any{"packageName": "provider"})

	var got PackageInfoResponse
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	assert.Equal(t, "provider", got.Package.Name)
	assert.Equal(t, "6.1.2", got.Package.Version)
	require.NotNil(t, got.Package.Homepage)
	assert.Equal(t, "https://github.com/rrousselGit/provider", *got.Package.Homepage)
	assert.Nil(t, got.Package.Repository)
	assert.Equal(t, []string{"state-management"}, got.Package.Topics)

	spec, ok := got.Package.Dependencies.Get("flutter")
	require.True(t, ok)
	assert.Equal(t, `{"sdk":"flutter"}`, spec)

	require.NotNil(t, got.Stats)
	assert.Equal(t, 150, *got.Stats.Points)
	assert.Equal(t, 10000, *got.Stats.Likes)

	// dependencies keep registry order in the output
	assert.Less(t, strings.Index(text, `"collection"`), strings.Index(text, `"flutter"`))
	assert.Less(t, strings.Index(text, `"flutter"`), strings.Index(text, `"nested"`))
}

func TestPackageInfo_ScoreFailureOmitsStats(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/packages/provider", providerPackage)
	f.fail("/api/packages/provider/score", http.StatusInternalServerError)

	var got map[string]json.RawMessage
	f.callJSON(NewPackageInfoTool(f.client), map[string]any{"packageName": "provider"}, &got)

	assert.Contains(t, got, "package")
	assert.NotContains(t, got, "stats")
}

func TestPackageInfo_ErrorContainment(t *testing.T) {
	f := newFixture(t)
	f.fail("/api/packages/provider", http.StatusServiceUnavailable)
	tool := NewPackageInfoTool(f.client)

	text := f.call(tool, map[string]any{"packageName": "provider"})
	assert.Equal(t, "Error: HTTP 503: Service Unavailable", text)

	text = f.call(tool, map[string]any{"packageName": "nope"})
	assert.Equal(t, "Error: package nope not found: HTTP 404: Not Found", text)

	text = f.call(tool, map[string]any{})
	assert.Equal(t, "Error: missing required parameter: packageName", text)

	// failures are not cached
	f.serve("/api/packages/provider", providerPackage)
	f.serve("/api/packages/provider/score", providerScore)
	text = f.call(tool, map[string]any{"packageName": "provider"})
	assert.False(t, strings.HasPrefix(text, tools.ErrorPrefix), text)
}

func TestPackageInfo_IdempotentRefetch(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/packages/provider", providerPackage)
	f.serve("/api/packages/provider/score", providerScore)
	tool := NewPackageInfoTool(f.client)
	args := map[string]any{"packageName": "provider"}

	first := f.call(tool, args)
	f.clock.Advance(cache.DefaultTTL + time.Second)
	second := f.call(tool, args)

	assert.Equal(t, 2, f.count("/api/packages/provider"))
	assert.Equal(t, first, second)

	// within the window the cached payload is reused
	third := f.call(tool, args)
	assert.Equal(t, 2, f.count("/api/packages/provider"))
	assert.Equal(t, first, third)
}

func TestCheckUpdates(t *testing.T) {
	tests := []struct {
		name        string
		current     any
		wantCurrent string
		wantUpdate  bool
		wantBehind  int
	}{
		{name: "behind", current: "5.0.0", wantCurrent: "5.0.0", wantUpdate: true, wantBehind: 3},
		{name: "up to date", current: "6.1.2", wantCurrent: "6.1.2", wantUpdate: false, wantBehind: 0},
		{name: "unlisted version", current: "4.9.9", wantCurrent: "4.9.9", wantUpdate: true, wantBehind: 0},
		{name: "ahead of latest", current: "7.0.0", wantCurrent: "7.0.0", wantUpdate: false, wantBehind: 0},
		{name: "no current version", current: nil, wantCurrent: "unknown", wantUpdate: false, wantBehind: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.serve("/api/packages/provider", providerPackage)
			f.serve("/api/packages/provider/versions", providerVersions)

			args := map[string]any{"packageName": "provider"}
			if tt.current != nil {
				args["currentVersion"] = tt.current
			}

			var got UpdateStatus
			f.callJSON(NewCheckUpdatesTool(f.client), args, &got)

			assert.Equal(t, "provider", got.PackageName)
			assert.Equal(t, tt.wantCurrent, got.CurrentVersion)
			assert.Equal(t, "6.1.2", got.LatestVersion)
			assert.Equal(t, tt.wantUpdate, got.UpdateAvailable)
			assert.Equal(t, tt.wantBehind, got.VersionsBehind)

			if tt.current == nil {
				assert.Equal(t, 0, f.count("/api/packages/provider/versions"))
			}
		})
	}
}

func TestCheckUpdates_PositionalInOldestFirstList(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/packages/provider", providerPackage)
	f.serve("/api/packages/provider/versions", `{"versions":[{"version":"5.0.0"},{"version":"6.0.5"},{"version":"6.1.2"}]}`)

	var got UpdateStatus
	f.callJSON(NewCheckUpdatesTool(f.client), map[string]any{"packageName": "provider", "currentVersion": "5.0.0"}, &got)

	assert.True(t, got.UpdateAvailable)
	assert.Equal(t, -2, got.VersionsBehind)
}

func TestPackageVersions(t *testing.T) {
	tests := []struct {
		name  string
		limit any
		want  []string
	}{
		{name: "default limit", want: []string{"6.1.2", "6.1.1", "6.0.5", "5.0.0"}},
		{name: "limit", limit: 2.0, want: []string{"6.1.2", "6.1.1"}},
		{name: "zero clamps to one", limit: 0.0, want: []string{"6.1.2"}},
		{name: "negative clamps to one", limit: -3.0, want: []string{"6.1.2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.serve("/api/packages/provider/versions", providerVersions)

			args := map[string]any{"packageName": "provider"}
			if tt.limit != nil {
				args["limit"] = tt.limit
			}

			var got VersionsResponse
			f.callJSON(NewPackageVersionsTool(f.client), args, &got)

			assert.Equal(t, 4, got.TotalVersions)
			var versionStrings []string
			for _, v := range got.Versions {
				versionStrings = append(versionStrings, v.Version)
			}
			assert.Equal(t, tt.want, versionStrings)
		})
	}
}

func TestPackageVersions_Details(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/packages/provider/versions", providerVersions)

	var got VersionsResponse
	f.callJSON(NewPackageVersionsTool(f.client), map[string]any{"packageName": "provider", "limit": 2.0}, &got)

	require.Len(t, got.Versions, 2)
	require.NotNil(t, got.Versions[0].Description)
	assert.Equal(t, "latest", *got.Versions[0].Description)
	assert.False(t, got.Versions[0].Retracted)
	assert.True(t, got.Versions[1].Retracted)
	assert.Nil(t, got.Versions[1].Description)
}

func TestDocumentation(t *testing.T) {
	f := newFixture(t)
	f.serve("/packages/provider/versions/6.1.2/changelog",
		`<html><body><nav>menu</nav><div class="detail-tab-changelog-content"><h2>6.1.2</h2><ul><li>Fixed a bug</li></ul></div></body></html>`)

	var got DocumentationResponse
	f.callJSON(NewDocumentationTool(f.client), map[string]any{
		"packageName": "provider",
		"version":     "6.1.2",
		"docType":     "changelog",
	}, &got)

	assert.Equal(t, "provider", got.PackageName)
	assert.Equal(t, "6.1.2", got.Version)
	assert.Equal(t, pubdev.Changelog, got.DocumentationType)
	require.NotNil(t, got.Documentation)
	assert.True(t, got.Documentation.Available)
	assert.Contains(t, got.Documentation.Content, "## 6.1.2")
	assert.Contains(t, got.Documentation.Content, "Fixed a bug")
	assert.NotContains(t, got.Documentation.Content, "menu")
}

func TestDocumentation_DefaultsAndUnavailable(t *testing.T) {
	f := newFixture(t)

	var got DocumentationResponse
	f.callJSON(NewDocumentationTool(f.client), map[string]any{"packageName": "provider"}, &got)

	assert.Equal(t, "latest", got.Version)
	assert.Equal(t, pubdev.Readme, got.DocumentationType)
	require.NotNil(t, got.Documentation)
	assert.False(t, got.Documentation.Available)
	assert.Equal(t, "README not available for this package/version", got.Documentation.Content)
	assert.Equal(t, 1, f.count("/packages/provider/readme"))
}

func TestDocumentation_UnsupportedDocType(t *testing.T) {
	f := newFixture(t)

	text := f.call(NewDocumentationTool(f.client), map[string]any{
		"packageName": "provider",
		"docType":     "wiki",
	})

	assert.True(t, strings.HasPrefix(text, "Error: Unsupported documentation type: wiki"), text)
	assert.Empty(t, f.hits)
}

func TestCompareVersions(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/packages/provider/versions", providerVersions)

	var got ComparisonResponse
	text := f.call(NewCompareVersionsTool(f.client), map[string]any{
		"packageName": "provider",
		"fromVersion": "5.0.0",
		"toVersion":   "6.1.2",
	})
	require.NoError(t, json.Unmarshal([]byte(text), &got))

	assert.Equal(t, DirectionUpgrade, got.Direction)
	assert.Equal(t, "5.0.0", got.Comparison.From.Version)
	assert.Equal(t, "6.1.2", got.Comparison.To.Version)

	deps := got.Changes.DependencyChanges
	assert.Empty(t, deps.Added)
	require.Len(t, deps.Removed, 1)
	assert.Equal(t, "meta", deps.Removed[0].Package)
	assert.Equal(t, "^1.1.0", deps.Removed[0].Version)
	require.Len(t, deps.Updated, 1)
	assert.Equal(t, "collection", deps.Updated[0].Package)
	assert.Equal(t, "^1.0.0", deps.Updated[0].From)
	assert.Equal(t, "^1.15.0", deps.Updated[0].To)

	devDeps := got.Changes.DevDependencyChanges
	require.Len(t, devDeps.Removed, 1)
	assert.Equal(t, "pedantic", devDeps.Removed[0].Package)
	require.Len(t, devDeps.Updated, 1)
	assert.Equal(t, "mockito", devDeps.Updated[0].Package)

	// empty groups are serialised as arrays
	assert.Contains(t, text, `"added": []`)
}

func TestCompareVersions_DowngradeAndRetracted(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/packages/provider/versions", providerVersions)

	var got ComparisonResponse
	f.callJSON(NewCompareVersionsTool(f.client), map[string]any{
		"packageName": "provider",
		"fromVersion": "6.1.1",
		"toVersion":   "6.0.5",
	}, &got)

	assert.Equal(t, DirectionDowngrade, got.Direction)
	assert.True(t, got.Comparison.From.Retracted)
	assert.False(t, got.Comparison.To.Retracted)
	assert.True(t, got.Changes.DependencyChanges.Empty())
	assert.Equal(t, 0, got.Comparison.To.DevDependencies.Len())
}

func TestCompareVersions_Errors(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/packages/provider/versions", providerVersions)
	tool := NewCompareVersionsTool(f.client)

	text := f.call(tool, map[string]any{"packageName": "provider", "fromVersion": "5.0.0", "toVersion": "9.9.9"})
	assert.Equal(t, "Error: version 9.9.9 not found for package provider", text)

	text = f.call(tool, map[string]any{"packageName": "provider", "fromVersion": "5.0.0"})
	assert.Equal(t, "Error: missing required parameter: toVersion", text)
}

func TestSearchPackages(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/search", `{
  "packages": [
    {"package": "provider", "latest": {"version": "6.1.2", "pubspec": {"description": "InheritedWidget wrapper"}}, "likes": 10000},
    {"package": "riverpod"}
  ],
  "next": "https://pub.dev/api/search?q=state&page=2"
}`)

	var got SearchResponse
	f.callJSON(NewSearchPackagesTool(f.client), map[string]any{"query": "state"}, &got)

	assert.Equal(t, "state", got.Query)
	assert.Equal(t, DefaultSort, got.Sort)
	assert.Equal(t, 1, got.Page)
	require.NotNil(t, got.Next)
	require.Len(t, got.Packages, 2)
	assert.Equal(t, "provider", got.Packages[0].Name)
	assert.Equal(t, "6.1.2", got.Packages[0].Version)
	assert.Equal(t, 10000, *got.Packages[0].Likes)
	assert.Equal(t, "riverpod", got.Packages[1].Name)
	assert.Empty(t, got.Packages[1].Version)

	assert.Equal(t, "page=1&q=state&sort=top", f.query["/api/search"])
}

func TestSearchPackages_InvalidSort(t *testing.T) {
	f := newFixture(t)

	text := f.call(NewSearchPackagesTool(f.client), map[string]any{"query": "state", "sort": "stars"})
	assert.True(t, strings.HasPrefix(text, "Error: unsupported sort order: stars"), text)
	assert.Equal(t, 0, f.count("/api/search"))
}

func TestSearchPackages_CachedPerPage(t *testing.T) {
	f := newFixture(t)
	f.serve("/api/search", `{"packages":[]}`)
	tool := NewSearchPackagesTool(f.client)

	f.call(tool, map[string]any{"query": "http", "page": 2.0})
	f.call(tool, map[string]any{"query": "http", "page": 2.0})
	assert.Equal(t, 1, f.count("/api/search"))

	f.call(tool, map[string]any{"query": "http", "page": 3.0})
	assert.Equal(t, 2, f.count("/api/search"))
}

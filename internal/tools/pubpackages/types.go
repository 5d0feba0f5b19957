package pubpackages

import (
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/versions"
)

// PackageSummary is the package section of get_package_info
type PackageSummary struct {
	Name            string                `json:"name"`
	Version         string                `json:"version"`
	Description     *string               `json:"description,omitempty"`
	Homepage        *string               `json:"homepage,omitempty"`
	Repository      *string               `json:"repository,omitempty"`
	IssueTracker    *string               `json:"issueTracker,omitempty"`
	Documentation   *string               `json:"documentation,omitempty"`
	Topics          []string              `json:"topics,omitempty"`
	PublishedAt     *string               `json:"publishedAt,omitempty"`
	Dependencies    versions.Dependencies `json:"dependencies"`
	DevDependencies versions.Dependencies `json:"devDependencies"`
	IsDiscontinued  bool                  `json:"isDiscontinued,omitempty"`
	ReplacedBy      *string               `json:"replacedBy,omitempty"`
}

// PackageStats is the score section of get_package_info
type PackageStats struct {
	Points         *int     `json:"points,omitempty"`
	MaxPoints      *int     `json:"maxPoints,omitempty"`
	Likes          *int     `json:"likes,omitempty"`
	Popularity     *float64 `json:"popularity,omitempty"`
	Downloads30Day *int64   `json:"downloads30Days,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// PackageInfoResponse is returned by get_package_info
type PackageInfoResponse struct {
	Package PackageSummary `json:"package"`
	Stats   *PackageStats  `json:"stats,omitempty"`
}

// UpdateStatus is returned by check_package_updates
type UpdateStatus struct {
	PackageName     string  `json:"packageName"`
	CurrentVersion  string  `json:"currentVersion"`
	LatestVersion   string  `json:"latestVersion"`
	LatestPublished *string `json:"latestPublished,omitempty"`
	UpdateAvailable bool    `json:"updateAvailable"`
	VersionsBehind  int     `json:"versionsBehind"`
}

// VersionSummary is one entry of get_package_versions
type VersionSummary struct {
	Version     string  `json:"version"`
	PublishedAt *string `json:"publishedAt,omitempty"`
	Description *string `json:"description,omitempty"`
	Retracted   bool    `json:"retracted,omitempty"`
}

// VersionsResponse is returned by get_package_versions
type VersionsResponse struct {
	PackageName   string           `json:"packageName"`
	TotalVersions int              `json:"totalVersions"`
	Versions      []VersionSummary `json:"versions"`
}

// DocumentationResponse is returned by get_documentation_changes
type DocumentationResponse struct {
	PackageName       string           `json:"packageName"`
	Version           string           `json:"version"`
	DocumentationType pubdev.DocType   `json:"documentationType"`
	Documentation     *pubdev.Document `json:"documentation"`
}

// VersionSnapshot is one side of a version comparison
type VersionSnapshot struct {
	Version         string                `json:"version"`
	Published       *string               `json:"published,omitempty"`
	Retracted       bool                  `json:"retracted,omitempty"`
	Dependencies    versions.Dependencies `json:"dependencies"`
	DevDependencies versions.Dependencies `json:"devDependencies"`
}

// Comparison groups both sides of a comparison
type Comparison struct {
	From VersionSnapshot `json:"from"`
	To   VersionSnapshot `json:"to"`
}

// Changes holds the dependency deltas between two versions
type Changes struct {
	DependencyChanges    versions.Delta `json:"dependencyChanges"`
	DevDependencyChanges versions.Delta `json:"devDependencyChanges"`
}

// ComparisonResponse is returned by compare_package_versions
type ComparisonResponse struct {
	PackageName string     `json:"packageName"`
	Direction   string     `json:"direction"`
	Comparison  Comparison `json:"comparison"`
	Changes     Changes    `json:"changes"`
}

// SearchPackage is one search hit
type SearchPackage struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Description *string  `json:"description,omitempty"`
	Points      *int     `json:"points,omitempty"`
	Likes       *int     `json:"likes,omitempty"`
	Popularity  *float64 `json:"popularity,omitempty"`
	PublishedAt *string  `json:"publishedAt,omitempty"`
}

// SearchResponse is returned by search_packages
type SearchResponse struct {
	Query        string          `json:"query"`
	Sort         string          `json:"sort"`
	Page         int             `json:"page"`
	TotalResults *int            `json:"totalResults,omitempty"`
	Next         *string         `json:"next,omitempty"`
	Packages     []SearchPackage `json:"packages"`
}

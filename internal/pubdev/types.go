package pubdev

import (
	"errors"
	"fmt"

	"github.com/sammcj/mcp-pubdev/internal/versions"
)

// Pubspec is the subset of a package's pubspec.yaml that the tools report.
// Optional fields are pointers so absent values stay absent in output.
type Pubspec struct {
	Name            string                `json:"name,omitempty"`
	Version         string                `json:"version,omitempty"`
	Description     *string               `json:"description,omitempty"`
	Homepage        *string               `json:"homepage,omitempty"`
	Repository      *string               `json:"repository,omitempty"`
	IssueTracker    *string               `json:"issue_tracker,omitempty"`
	Documentation   *string               `json:"documentation,omitempty"`
	Topics          []string              `json:"topics,omitempty"`
	Dependencies    versions.Dependencies `json:"dependencies"`
	DevDependencies versions.Dependencies `json:"dev_dependencies"`
}

// VersionInfo describes one published version
type VersionInfo struct {
	Version    string   `json:"version"`
	Pubspec    *Pubspec `json:"pubspec,omitempty"`
	Published  *string  `json:"published,omitempty"`
	Retracted  *bool    `json:"retracted,omitempty"`
	ArchiveURL *string  `json:"archive_url,omitempty"`
}

// Spec returns the pubspec, or an empty one when the registry omitted it
func (v *VersionInfo) Spec() *Pubspec {
	if v == nil || v.Pubspec == nil {
		return &Pubspec{}
	}
	return v.Pubspec
}

// IsRetracted reports whether the registry flagged the version as retracted
func (v *VersionInfo) IsRetracted() bool {
	return v != nil && v.Retracted != nil && *v.Retracted
}

// PackageData is the /api/packages/<name> response
type PackageData struct {
	Name           string        `json:"name"`
	Latest         VersionInfo   `json:"latest"`
	IsDiscontinued *bool         `json:"isDiscontinued,omitempty"`
	ReplacedBy     *string       `json:"replacedBy,omitempty"`
	Versions       []VersionInfo `json:"versions,omitempty"`
}

// Validate checks the fields every tool relies on
func (p *PackageData) Validate() error {
	if p.Name == "" {
		return errors.New("package response has no name")
	}
	if p.Latest.Version == "" {
		return fmt.Errorf("package %s has no latest version", p.Name)
	}
	return nil
}

// VersionList is the /api/packages/<name>/versions response
type VersionList struct {
	Name     string        `json:"name,omitempty"`
	Latest   *VersionInfo  `json:"latest,omitempty"`
	Versions []VersionInfo `json:"versions"`
}

// Validate checks that a version list was present and every entry is named
func (l *VersionList) Validate() error {
	if l.Versions == nil {
		return errors.New("version list response has no versions")
	}
	for i, v := range l.Versions {
		if v.Version == "" {
			return fmt.Errorf("version entry %d has no version string", i)
		}
	}
	return nil
}

// Find returns the entry for version and its position in registry order
func (l *VersionList) Find(version string) (*VersionInfo, int) {
	for i := range l.Versions {
		if l.Versions[i].Version == version {
			return &l.Versions[i], i
		}
	}
	return nil, -1
}

// Score is the /api/packages/<name>/score response
type Score struct {
	GrantedPoints       *int     `json:"grantedPoints,omitempty"`
	MaxPoints           *int     `json:"maxPoints,omitempty"`
	LikeCount           *int     `json:"likeCount,omitempty"`
	PopularityScore     *float64 `json:"popularityScore,omitempty"`
	DownloadCount30Days *int64   `json:"downloadCount30Days,omitempty"`
	Tags                []string `json:"tags,omitempty"`
	LastUpdated         *string  `json:"lastUpdated,omitempty"`
}

// SearchHit is one package in a search response
type SearchHit struct {
	Package    string       `json:"package"`
	Latest     *VersionInfo `json:"latest,omitempty"`
	Points     *int         `json:"points,omitempty"`
	Likes      *int         `json:"likes,omitempty"`
	Popularity *float64     `json:"popularity,omitempty"`
}

// SearchResult is the /api/search response
type SearchResult struct {
	Packages []SearchHit `json:"packages"`
	Count    *int        `json:"count,omitempty"`
	Next     *string     `json:"next,omitempty"`
}

// Validate checks that a package list was present and every hit is named
func (s *SearchResult) Validate() error {
	if s.Packages == nil {
		return errors.New("search response has no packages")
	}
	for i, hit := range s.Packages {
		if hit.Package == "" {
			return fmt.Errorf("search hit %d has no package name", i)
		}
	}
	return nil
}

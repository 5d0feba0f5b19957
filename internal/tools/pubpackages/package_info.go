package pubpackages

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sirupsen/logrus"
)

// PackageInfoTool reports metadata for a package's latest version
type PackageInfoTool struct {
	client *pubdev.Client
}

// NewPackageInfoTool creates the get_package_info tool
func NewPackageInfoTool(client *pubdev.Client) *PackageInfoTool {
	return &PackageInfoTool{client: client}
}

// Definition returns the tool's definition for MCP registration
func (t *PackageInfoTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"get_package_info",
		mcp.WithDescription("Get detailed information about a Dart/Flutter package from pub.dev: latest version, description, links, dependencies and score statistics"),
		mcp.WithString("packageName",
			mcp.Required(),
			mcp.Description("Name of the package, e.g. 'http' or 'provider'"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute fetches the package and, best effort, its score
func (t *PackageInfoTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	name, err := tools.RequiredString(args, "packageName")
	if err != nil {
		return nil, err
	}

	logger.WithField("package", name).Debug("Getting package info")

	data, err := t.client.Package(ctx, name)
	if err != nil {
		return nil, err
	}

	spec := data.Latest.Spec()
	response := PackageInfoResponse{
		Package: PackageSummary{
			Name:            data.Name,
			Version:         data.Latest.Version,
			Description:     spec.Description,
			Homepage:        spec.Homepage,
			Repository:      spec.Repository,
			IssueTracker:    spec.IssueTracker,
			Documentation:   spec.Documentation,
			Topics:          spec.Topics,
			PublishedAt:     data.Latest.Published,
			Dependencies:    spec.Dependencies,
			DevDependencies: spec.DevDependencies,
			IsDiscontinued:  data.IsDiscontinued != nil && *data.IsDiscontinued,
			ReplacedBy:      data.ReplacedBy,
		},
	}

	score, err := t.client.Score(ctx, name)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"package": name,
			"error":   err.Error(),
		}).Warn("Failed to get package score, omitting stats")
	} else {
		response.Stats = &PackageStats{
			Points:         score.GrantedPoints,
			MaxPoints:      score.MaxPoints,
			Likes:          score.LikeCount,
			Popularity:     score.PopularityScore,
			Downloads30Day: score.DownloadCount30Days,
			Tags:           score.Tags,
		}
	}

	return tools.NewToolResultJSON(response)
}

package pubpackages

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sirupsen/logrus"
)

// DefaultVersionLimit is the number of versions listed when no limit is given
const DefaultVersionLimit = 10

// PackageVersionsTool lists published versions of a package
type PackageVersionsTool struct {
	client *pubdev.Client
}

// NewPackageVersionsTool creates the get_package_versions tool
func NewPackageVersionsTool(client *pubdev.Client) *PackageVersionsTool {
	return &PackageVersionsTool{client: client}
}

// Definition returns the tool's definition for MCP registration
func (t *PackageVersionsTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"get_package_versions",
		mcp.WithDescription("List published versions of a pub.dev package with their publish dates"),
		mcp.WithString("packageName",
			mcp.Required(),
			mcp.Description("Name of the package"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of versions to return (default: 10)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute lists the first limit versions in registry order
func (t *PackageVersionsTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	name, err := tools.RequiredString(args, "packageName")
	if err != nil {
		return nil, err
	}
	limit, err := tools.OptionalInt(args, "limit", DefaultVersionLimit)
	if err != nil {
		return nil, err
	}
	limit = max(limit, 1)

	list, err := t.client.Versions(ctx, name)
	if err != nil {
		return nil, err
	}

	count := min(limit, len(list.Versions))
	summaries := make([]VersionSummary, 0, count)
	for i := range count {
		v := &list.Versions[i]
		summaries = append(summaries, VersionSummary{
			Version:     v.Version,
			PublishedAt: v.Published,
			Description: v.Spec().Description,
			Retracted:   v.IsRetracted(),
		})
	}

	logger.WithFields(logrus.Fields{
		"package":  name,
		"total":    len(list.Versions),
		"returned": count,
	}).Debug("Listed package versions")

	return tools.NewToolResultJSON(VersionsResponse{
		PackageName:   name,
		TotalVersions: len(list.Versions),
		Versions:      summaries,
	})
}

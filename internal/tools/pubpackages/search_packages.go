package pubpackages

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sirupsen/logrus"
)

// DefaultSort is the search order used when none is given
const DefaultSort = "top"

// SearchPackagesTool searches pub.dev
type SearchPackagesTool struct {
	client *pubdev.Client
}

// NewSearchPackagesTool creates the search_packages tool
func NewSearchPackagesTool(client *pubdev.Client) *SearchPackagesTool {
	return &SearchPackagesTool{client: client}
}

// Definition returns the tool's definition for MCP registration
func (t *SearchPackagesTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"search_packages",
		mcp.WithDescription("Search for Dart/Flutter packages on pub.dev"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, e.g. 'state management' or 'topic:http'"),
		),
		mcp.WithString("sort",
			mcp.Description("Sort order for results (default: top)"),
			mcp.Enum(pubdev.SortOrders...),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number for pagination (default: 1)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute runs the search and projects each hit
func (t *SearchPackagesTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	query, err := tools.RequiredString(args, "query")
	if err != nil {
		return nil, err
	}
	sort, err := tools.OptionalString(args, "sort", DefaultSort)
	if err != nil {
		return nil, err
	}
	page, err := tools.OptionalInt(args, "page", 1)
	if err != nil {
		return nil, err
	}
	page = max(page, 1)

	result, err := t.client.Search(ctx, query, sort, page)
	if err != nil {
		return nil, err
	}

	packages := make([]SearchPackage, 0, len(result.Packages))
	for _, hit := range result.Packages {
		pkg := SearchPackage{
			Name:       hit.Package,
			Points:     hit.Points,
			Likes:      hit.Likes,
			Popularity: hit.Popularity,
		}
		if hit.Latest != nil {
			pkg.Version = hit.Latest.Version
			pkg.Description = hit.Latest.Spec().Description
			pkg.PublishedAt = hit.Latest.Published
		}
		packages = append(packages, pkg)
	}

	logger.WithFields(logrus.Fields{
		"query":   query,
		"sort":    sort,
		"page":    page,
		"results": len(packages),
	}).Debug("Searched packages")

	return tools.NewToolResultJSON(SearchResponse{
		Query:        query,
		Sort:         sort,
		Page:         page,
		TotalResults: result.Count,
		Next:         result.Next,
		Packages:     packages,
	})
}

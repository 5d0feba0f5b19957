package pubpackages

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sirupsen/logrus"
)

const latestVersion = "latest"

// DocumentationTool fetches a package's readme, changelog, example or API docs
type DocumentationTool struct {
	client *pubdev.Client
}

// NewDocumentationTool creates the get_documentation_changes tool
func NewDocumentationTool(client *pubdev.Client) *DocumentationTool {
	return &DocumentationTool{client: client}
}

// Definition returns the tool's definition for MCP registration
func (t *DocumentationTool) Definition() mcp.Tool {
	docTypes := make([]string, len(pubdev.DocTypes))
	for i, dt := range pubdev.DocTypes {
		docTypes[i] = string(dt)
	}

	return mcp.NewTool(
		"get_documentation_changes",
		mcp.WithDescription("Get the README, CHANGELOG, example or API documentation of a pub.dev package, for the latest or a specific version"),
		mcp.WithString("packageName",
			mcp.Required(),
			mcp.Description("Name of the package"),
		),
		mcp.WithString("version",
			mcp.Description("Package version (default: latest)"),
		),
		mcp.WithString("docType",
			mcp.Description("Documentation to fetch: "+strings.Join(docTypes, ", ")+" (default: readme)"),
			mcp.Enum(docTypes...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute fetches the documentation page. Pages the registry does not serve
// are reported with available set to false rather than as an error.
func (t *DocumentationTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	name, err := tools.RequiredString(args, "packageName")
	if err != nil {
		return nil, err
	}
	version, err := tools.OptionalString(args, "version", "")
	if err != nil {
		return nil, err
	}
	rawType, err := tools.OptionalString(args, "docType", "")
	if err != nil {
		return nil, err
	}
	docType, err := pubdev.ParseDocType(rawType)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"package": name,
		"version": version,
		"docType": docType,
	}).Debug("Getting package documentation")

	doc, err := t.client.Documentation(ctx, logger, name, version, docType)
	if err != nil {
		return nil, err
	}

	shownVersion := version
	if shownVersion == "" {
		shownVersion = latestVersion
	}

	return tools.NewToolResultJSON(DocumentationResponse{
		PackageName:       name,
		Version:           shownVersion,
		DocumentationType: docType,
		Documentation:     doc,
	})
}

// ProvideExtendedInfo provides usage help for get_documentation_changes
func (t *DocumentationTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Read the changelog for a specific release",
				Arguments:   map[string]any{"packageName": "riverpod", "version": "2.5.1", "docType": "changelog"},
			},
			{
				Description:    "Read the latest README",
				Arguments:      map[string]any{"packageName": "http"},
				ExpectedResult: "README content as markdown, capped at 5000 characters",
			},
		},
		CommonPatterns: []string{
			"Call compare_package_versions first, then read the changelog of the target version",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "available is false",
				Solution: "The package or version does not publish that page. Try docType readme, or omit version.",
			},
			{
				Problem:  "truncated is true",
				Solution: "Content is capped at 5000 characters. Open the returned url for the full page.",
			},
		},
		ParameterDetails: map[string]string{
			"docType": "api_docs returns the raw dartdoc index page; the other types are converted to markdown",
		},
	}
}

package pubpackages

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sammcj/mcp-pubdev/internal/versions"
	"github.com/sirupsen/logrus"
)

const unknownVersion = "unknown"

// CheckUpdatesTool compares a version in use with the latest release
type CheckUpdatesTool struct {
	client *pubdev.Client
}

// NewCheckUpdatesTool creates the check_package_updates tool
func NewCheckUpdatesTool(client *pubdev.Client) *CheckUpdatesTool {
	return &CheckUpdatesTool{client: client}
}

// Definition returns the tool's definition for MCP registration
func (t *CheckUpdatesTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"check_package_updates",
		mcp.WithDescription("Check whether a newer version of a pub.dev package is available and how many releases behind the given version is"),
		mcp.WithString("packageName",
			mcp.Required(),
			mcp.Description("Name of the package"),
		),
		mcp.WithString("currentVersion",
			mcp.Description("Version currently in use, e.g. '1.1.0' (Optional)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute reports the update status. versionsBehind is the distance between
// the current and latest entries in the registry's own list order, and is
// only set when both are listed.
func (t *CheckUpdatesTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	name, err := tools.RequiredString(args, "packageName")
	if err != nil {
		return nil, err
	}
	current, err := tools.OptionalString(args, "currentVersion", "")
	if err != nil {
		return nil, err
	}

	data, err := t.client.Package(ctx, name)
	if err != nil {
		return nil, err
	}

	latest := data.Latest.Version
	status := UpdateStatus{
		PackageName:     name,
		CurrentVersion:  unknownVersion,
		LatestVersion:   latest,
		LatestPublished: data.Latest.Published,
	}

	if current != "" {
		status.CurrentVersion = current
		status.UpdateAvailable = versions.IsNewer(latest, current)

		list, err := t.client.Versions(ctx, name)
		if err != nil {
			return nil, err
		}

		_, currentIndex := list.Find(current)
		_, latestIndex := list.Find(latest)
		if currentIndex > -1 && latestIndex > -1 {
			status.VersionsBehind = currentIndex - latestIndex
		}

		logger.WithFields(logrus.Fields{
			"package":        name,
			"current":        current,
			"latest":         latest,
			"versionsBehind": status.VersionsBehind,
		}).Debug("Checked package updates")
	}

	return tools.NewToolResultJSON(status)
}

// ProvideExtendedInfo provides usage help for check_package_updates
func (t *CheckUpdatesTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Check whether http 1.1.0 is out of date",
				Arguments:      map[string]any{"packageName": "http", "currentVersion": "1.1.0"},
				ExpectedResult: "latestVersion, updateAvailable and versionsBehind for the package",
			},
			{
				Description: "Only report the latest version",
				Arguments:   map[string]any{"packageName": "provider"},
			},
		},
		ParameterDetails: map[string]string{
			"currentVersion": "Plain version string as it appears on pub.dev, without a caret or range. Omit it to skip the version list lookup.",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "versionsBehind is 0 although an update is available",
				Solution: "The current version is not in the registry's version list (for example a typo or a git dependency). Check it with get_package_versions.",
			},
			{
				Problem:  "versionsBehind is negative",
				Solution: "The count follows the registry's list order, which is oldest first for pub.dev. Use the absolute value as the number of releases between the two versions.",
			},
		},
		WhenToUse: "Before upgrading a dependency in pubspec.yaml",
	}
}

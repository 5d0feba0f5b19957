package pubpackages

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sammcj/mcp-pubdev/internal/versions"
	"github.com/sirupsen/logrus"
)

// Comparison directions
const (
	DirectionUpgrade   = "upgrade"
	DirectionDowngrade = "downgrade"
	DirectionSame      = "same"
)

// CompareVersionsTool diffs the dependencies of two versions of a package
type CompareVersionsTool struct {
	client *pubdev.Client
}

// NewCompareVersionsTool creates the compare_package_versions tool
func NewCompareVersionsTool(client *pubdev.Client) *CompareVersionsTool {
	return &CompareVersionsTool{client: client}
}

// Definition returns the tool's definition for MCP registration
func (t *CompareVersionsTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"compare_package_versions",
		mcp.WithDescription("Compare two versions of a pub.dev package and report added, removed and updated dependencies and dev dependencies"),
		mcp.WithString("packageName",
			mcp.Required(),
			mcp.Description("Name of the package"),
		),
		mcp.WithString("fromVersion",
			mcp.Required(),
			mcp.Description("Version to compare from"),
		),
		mcp.WithString("toVersion",
			mcp.Required(),
			mcp.Description("Version to compare to"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute compares fromVersion with toVersion
func (t *CompareVersionsTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	name, err := tools.RequiredString(args, "packageName")
	if err != nil {
		return nil, err
	}
	fromVersion, err := tools.RequiredString(args, "fromVersion")
	if err != nil {
		return nil, err
	}
	toVersion, err := tools.RequiredString(args, "toVersion")
	if err != nil {
		return nil, err
	}

	list, err := t.client.Versions(ctx, name)
	if err != nil {
		return nil, err
	}

	from, _ := list.Find(fromVersion)
	if from == nil {
		return nil, &pubdev.VersionNotFoundError{Package: name, Version: fromVersion}
	}
	to, _ := list.Find(toVersion)
	if to == nil {
		return nil, &pubdev.VersionNotFoundError{Package: name, Version: toVersion}
	}

	fromSpec, toSpec := from.Spec(), to.Spec()
	response := ComparisonResponse{
		PackageName: name,
		Direction:   direction(fromVersion, toVersion),
		Comparison: Comparison{
			From: snapshot(from),
			To:   snapshot(to),
		},
		Changes: Changes{
			DependencyChanges:    versions.Diff(fromSpec.Dependencies, toSpec.Dependencies),
			DevDependencyChanges: versions.Diff(fromSpec.DevDependencies, toSpec.DevDependencies),
		},
	}

	logger.WithFields(logrus.Fields{
		"package":   name,
		"from":      fromVersion,
		"to":        toVersion,
		"direction": response.Direction,
	}).Debug("Compared package versions")

	return tools.NewToolResultJSON(response)
}

func direction(from, to string) string {
	switch versions.Compare(from, to) {
	case versions.Less:
		return DirectionUpgrade
	case versions.Greater:
		return DirectionDowngrade
	default:
		return DirectionSame
	}
}

func snapshot(v *pubdev.VersionInfo) VersionSnapshot {
	spec := v.Spec()
	return VersionSnapshot{
		Version:         v.Version,
		Published:       v.Published,
		Retracted:       v.IsRetracted(),
		Dependencies:    spec.Dependencies,
		DevDependencies: spec.DevDependencies,
	}
}

// ProvideExtendedInfo provides usage help for compare_package_versions
func (t *CompareVersionsTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "See what changed in dependencies between two releases",
				Arguments:      map[string]any{"packageName": "http", "fromVersion": "0.13.6", "toVersion": "1.2.0"},
				ExpectedResult: "direction 'upgrade' with added, removed and updated dependency lists",
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "version X not found for package Y",
				Solution: "Both versions must be published on pub.dev exactly as written. List them with get_package_versions.",
			},
		},
		ParameterDetails: map[string]string{
			"fromVersion": "The older version in an upgrade. Passing the newer one reports direction 'downgrade'.",
		},
		WhenToUse:    "Assessing the impact of an upgrade on a project's dependency graph",
		WhenNotToUse: "Reading release notes; use get_documentation_changes with docType changelog instead",
	}
}

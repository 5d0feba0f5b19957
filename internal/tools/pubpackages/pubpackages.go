// Package pubpackages implements the pub.dev MCP tools. Each tool resolves
// registry resources through a shared pubdev.Client and reshapes them into a
// compact JSON result.
package pubpackages

import (
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/tools"
)

// All returns every pub.dev tool bound to client
func All(client *pubdev.Client) []tools.Tool {
	return []tools.Tool{
		NewPackageInfoTool(client),
		NewCheckUpdatesTool(client),
		NewPackageVersionsTool(client),
		NewDocumentationTool(client),
		NewCompareVersionsTool(client),
		NewSearchPackagesTool(client),
	}
}

package toolhelp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sahilm/fuzzy"
	"github.com/sammcj/mcp-pubdev/internal/registry"
	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sirupsen/logrus"
)

// maxSuggestions caps the names offered for an unknown tool
const maxSuggestions = 3

// ToolHelpTool returns extended usage information for other registered tools
type ToolHelpTool struct {
	registry *registry.Registry
}

// NewToolHelpTool creates the get_tool_help tool over reg
func NewToolHelpTool(reg *registry.Registry) *ToolHelpTool {
	return &ToolHelpTool{registry: reg}
}

// Definition returns the tool's definition for MCP registration
func (t *ToolHelpTool) Definition() mcp.Tool {
	withHelp := t.registry.GetToolNamesWithExtendedHelp()

	description := "No tools currently provide extended help information."
	if len(withHelp) > 0 {
		description = "Get detailed usage examples and troubleshooting for pub.dev tools when a call returns an unexpected error."
	}

	return mcp.NewTool(
		"get_tool_help",
		mcp.WithDescription(description),
		mcp.WithString("tool_name",
			mcp.Required(),
			mcp.Description("Name of the tool to get help for"),
			mcp.Enum(withHelp...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute executes the get_tool_help tool
func (t *ToolHelpTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	toolName, err := tools.RequiredString(args, "tool_name")
	if err != nil {
		return nil, err
	}

	tool, exists := t.registry.GetTool(toolName)
	provider, ok := tool.(tools.ExtendedHelpProvider)
	if !exists || !ok {
		return nil, t.notFoundError(logger, toolName)
	}

	response := &ToolHelpResponse{
		ToolName:        toolName,
		BasicInfo:       basicInfo(tool),
		HasExtendedInfo: true,
	}

	if info := provider.ProvideExtendedInfo(); info != nil {
		response.ExtendedInfo = convertExtendedInfo(info)
	} else {
		response.HasExtendedInfo = false
		response.Message = fmt.Sprintf("Tool '%s' returned no extended information", toolName)
	}

	return tools.NewToolResultJSON(response)
}

// notFoundError lists the tools with help, closest matches first
func (t *ToolHelpTool) notFoundError(logger *logrus.Logger, toolName string) error {
	available := t.registry.GetToolNamesWithExtendedHelp()
	suggestions := Suggest(toolName, available)

	logger.WithFields(logrus.Fields{
		"tool":        toolName,
		"suggestions": suggestions,
	}).Debug("Help requested for unknown tool")

	msg := fmt.Sprintf("tool '%s' not found, disabled, or does not provide extended help", toolName)
	if len(suggestions) > 0 {
		msg += fmt.Sprintf(". Did you mean: %s?", strings.Join(suggestions, ", "))
	}
	if len(available) > 0 {
		msg += fmt.Sprintf(" Tools with extended help: %s", strings.Join(available, ", "))
	}
	return errors.New(msg)
}

// Suggest returns up to three names from candidates that fuzzily match query
func Suggest(query string, candidates []string) []string {
	matches := fuzzy.Find(query, candidates)

	var suggestions []string
	for _, match := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, match.Str)
	}
	return suggestions
}

func basicInfo(tool tools.Tool) map[string]any {
	definition := tool.Definition()

	info := map[string]any{
		"name":        definition.Name,
		"description": definition.Description,
	}
	if definition.InputSchema.Type != "" {
		info["input_schema"] = definition.InputSchema
	}
	return info
}

func convertExtendedInfo(info *tools.ExtendedHelp) *ExtendedHelpData {
	result := &ExtendedHelpData{
		CommonPatterns:   info.CommonPatterns,
		ParameterDetails: info.ParameterDetails,
		WhenToUse:        info.WhenToUse,
		WhenNotToUse:     info.WhenNotToUse,
	}

	for _, tip := range info.Troubleshooting {
		result.Troubleshooting = append(result.Troubleshooting, TroubleshootingData(tip))
	}
	for _, example := range info.Examples {
		result.Examples = append(result.Examples, ToolExampleData(example))
	}

	return result
}

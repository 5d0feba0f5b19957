package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// ErrorPrefix starts the text of every failed tool result
const ErrorPrefix = "Error: "

// NewToolResultJSON creates a text result holding indented JSON
func NewToolResultJSON(data any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// ErrorResult wraps err in a successful envelope whose text is "Error: <msg>"
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultText(ErrorPrefix + err.Error())
}

// UnknownToolError is returned when a call names a tool that is not registered
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "Unknown tool: " + e.Name
}

// Invoke executes tool and always returns a well formed result. Handler
// errors and panics are converted into an Error envelope; the returned error
// is the underlying failure, for logging only.
func Invoke(ctx context.Context, logger *logrus.Logger, tool Tool, args map[string]any) (result *mcp.CallToolResult, err error) {
	name := tool.Definition().Name

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s failed unexpectedly: %v", name, r)
			logger.WithFields(logrus.Fields{
				"tool":  name,
				"panic": r,
			}).Error("Recovered from tool panic")
			result = ErrorResult(err)
		}
	}()

	if args == nil {
		args = map[string]any{}
	}

	result, err = tool.Execute(ctx, logger, args)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"tool":  name,
			"error": err.Error(),
		}).Debug("Tool returned an error")
		return ErrorResult(err), err
	}
	if result == nil {
		err = errors.New("tool returned no result")
		return ErrorResult(err), err
	}

	return result, nil
}

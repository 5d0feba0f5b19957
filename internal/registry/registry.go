// Package registry holds the tools exposed by the server and applies the
// disabled tool list.
package registry

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sirupsen/logrus"
)

// DisabledToolsEnvVar lists tool names to skip, comma separated
const DisabledToolsEnvVar = "DISABLED_TOOLS"

// Registry maps tool names to implementations
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]tools.Tool
	disabled map[string]bool
	logger   *logrus.Logger
}

// New creates a registry. Tools named in disabled, or in DISABLED_TOOLS, are
// never registered.
func New(logger *logrus.Logger, disabled ...string) *Registry {
	r := &Registry{
		tools:    make(map[string]tools.Tool),
		disabled: make(map[string]bool),
		logger:   logger,
	}

	r.disable("config", disabled)
	r.disable(DisabledToolsEnvVar, ParseToolList(os.Getenv(DisabledToolsEnvVar)))

	if logger != nil && len(r.disabled) > 0 {
		logger.WithField("count", len(r.disabled)).Debug("Parsed disabled tools")
	}
	return r
}

// ParseToolList splits a comma separated list of tool names
func ParseToolList(value string) []string {
	var names []string
	for name := range strings.SplitSeq(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (r *Registry) disable(source string, names []string) {
	for _, name := range names {
		r.disabled[normaliseToolName(name)] = true
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{
				"tool":   name,
				"source": source,
			}).Debug("Tool disabled")
		}
	}
}

// normaliseToolName lowercases and treats hyphens and underscores alike
func normaliseToolName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
}

// IsDisabled reports whether name was disabled by configuration
func (r *Registry) IsDisabled(name string) bool {
	return r.disabled[normaliseToolName(name)]
}

// Register adds tool unless it is disabled. It reports whether the tool was added.
func (r *Registry) Register(tool tools.Tool) bool {
	name := tool.Definition().Name

	if r.IsDisabled(name) {
		if r.logger != nil {
			r.logger.WithField("tool", name).Debug("Tool not registered (disabled)")
		}
		return false
	}

	r.mu.Lock()
	r.tools[name] = tool
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.WithField("tool", name).Debug("Tool successfully registered")
	}
	return true
}

// GetTool retrieves a registered tool by name
func (r *Registry) GetTool(name string) (tools.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// GetTools returns a copy of the registered tools
func (r *Registry) GetTools() map[string]tools.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]tools.Tool, len(r.tools))
	for name, tool := range r.tools {
		out[name] = tool
	}
	return out
}

// GetToolNames returns the registered tool names, sorted
func (r *Registry) GetToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetToolNamesWithExtendedHelp returns the sorted names of registered tools
// that implement tools.ExtendedHelpProvider
func (r *Registry) GetToolNamesWithExtendedHelp() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, tool := range r.tools {
		if _, ok := tool.(tools.ExtendedHelpProvider); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// GetLogger returns the registry's logger
func (r *Registry) GetLogger() *logrus.Logger {
	return r.logger
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sammcj/mcp-pubdev/internal/cache"
	"github.com/sammcj/mcp-pubdev/internal/config"
	"github.com/sammcj/mcp-pubdev/internal/gateway"
	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/registry"
	"github.com/sammcj/mcp-pubdev/internal/tools"
	"github.com/sammcj/mcp-pubdev/internal/tools/pubpackages"
	"github.com/sammcj/mcp-pubdev/internal/tools/utilities/toolhelp"
	"github.com/sammcj/mcp-pubdev/internal/utils/httpclient"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global resources that need cleanup
var (
	debugLogFile atomic.Pointer[os.File]
	isStdioMode  atomic.Bool
)

// parseLogLevel parses the LOG_LEVEL environment variable, defaulting to warn
func parseLogLevel() logrus.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional
	_ = godotenv.Load()

	// Discard output until the transport is known
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	defer performCleanup(logger)

	app := &cli.Command{
		Name:    "mcp-pubdev",
		Usage:   "MCP server for the pub.dev package registry",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "stdio",
				Usage:   "Transport type (stdio, sse, or http)",
			},
			&cli.StringFlag{
				Name:  "port",
				Value: "18080",
				Usage: "Port to use for HTTP transports (SSE and Streamable HTTP)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Value: "http://localhost",
				Usage: "Base URL for HTTP transports",
			},
			&cli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token required by the Streamable HTTP transport (optional)",
				Sources: cli.EnvVars("MCP_PUBDEV_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:  "endpoint-path",
				Value: "/http",
				Usage: "Endpoint path for Streamable HTTP transport",
			},
			&cli.DurationFlag{
				Name:  "session-timeout",
				Value: 30 * time.Minute,
				Usage: "Session timeout for Streamable HTTP transport",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the YAML config file (default: ~/.mcp-pubdev/config.yaml)",
			},
			&cli.StringFlag{
				Name:    "registry-url",
				Usage:   "Package registry base URL (default: https://pub.dev)",
				Sources: cli.EnvVars(config.RegistryURLEnvVar),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("mcp-pubdev version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
		},
		Action: func(cliCtx context.Context, cmd *cli.Command) error {
			transport := cmd.String("transport")
			isStdioMode.Store(transport == "stdio")

			configureLogging(logger, transport)

			if err := tools.InitGlobalErrorLogger(logger); err != nil {
				logger.WithError(err).Warn("Failed to initialise tool error logger")
			} else if errorLogger := tools.GetGlobalErrorLogger(); errorLogger.IsEnabled() {
				logger.WithField("path", errorLogger.GetLogFilePath()).Debug("Tool error logging enabled")
			}

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if registryURL := cmd.String("registry-url"); registryURL != "" {
				cfg.RegistryURL = registryURL
			}

			if transport != "stdio" {
				logger.Infof("Starting mcp-pubdev version %s (commit: %s, built: %s)", Version, Commit, BuildDate)
			}

			reg := newToolRegistry(cfg, logger)
			mcpSrv := newMCPServer(reg, transport, logger)

			logger.WithField("transport", transport).Debug("Starting server")
			switch transport {
			case "stdio":
				return mcpserver.ServeStdio(mcpSrv)
			case "sse":
				port := cmd.String("port")
				logger.WithField("port", port).Debug("Starting SSE server")
				sseServer := mcpserver.NewSSEServer(mcpSrv, mcpserver.WithBaseURL(cmd.String("base-url")+"/sse"))
				return sseServer.Start(":" + port)
			case "http":
				return startStreamableHTTPServer(cliCtx, httpOptions{
					Port:           cmd.String("port"),
					AuthToken:      cmd.String("auth-token"),
					EndpointPath:   cmd.String("endpoint-path"),
					SessionTimeout: cmd.Duration("session-timeout"),
				}, mcpSrv, logger)
			default:
				return fmt.Errorf("unsupported transport: %s", transport)
			}
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		// stdio must never write to stdout or stderr
		if !isStdioMode.Load() {
			logger.Fatalf("Error: %v", err)
		}
		os.Exit(1)
	}
}

// configureLogging sends logs to ~/.mcp-pubdev/logs/mcp-pubdev.log. When the
// file cannot be opened, stdio discards logs and other transports use stderr.
func configureLogging(logger *logrus.Logger, transport string) {
	logLevel := parseLogLevel()
	if transport == "stdio" && logLevel < logrus.WarnLevel {
		logLevel = logrus.WarnLevel
	}
	logger.SetLevel(logLevel)
	logrus.SetLevel(logLevel)

	fallback := io.Writer(os.Stderr)
	if transport == "stdio" {
		fallback = io.Discard
	}

	logDir := filepath.Join(config.Dir(), "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		return
	}

	file, err := os.OpenFile(filepath.Join(logDir, "mcp-pubdev.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		return
	}

	debugLogFile.Store(file)
	logger.SetOutput(file)
	logrus.SetOutput(file)
	logger.WithField("level", logLevel.String()).Debug("Logging configured")
}

// newToolRegistry builds the registry client stack and registers every tool
func newToolRegistry(cfg *config.Config, logger *logrus.Logger) *registry.Registry {
	httpClient := httpclient.NewRateLimitedClient(cfg.RateLimit, cfg.HTTPTimeout, logger)
	gw := gateway.New(httpClient, cache.NewCache(cache.DefaultTTL), logger)
	client := pubdev.NewClient(gw,
		pubdev.WithBaseURL(cfg.RegistryURL),
		pubdev.WithUserAgent(cfg.UserAgent),
	)

	reg := registry.New(logger, cfg.DisabledTools...)
	for _, tool := range pubpackages.All(client) {
		reg.Register(tool)
	}
	// registered last so its definition lists the tools above
	reg.Register(toolhelp.NewToolHelpTool(reg))

	logger.WithFields(logrus.Fields{
		"registry":   client.BaseURL(),
		"tool_count": len(reg.GetToolNames()),
		"rate_limit": cfg.RateLimit,
		"timeout":    cfg.HTTPTimeout.String(),
		"proxy":      httpclient.IsProxyConfigured(),
	}).Debug("Tool registry ready")

	return reg
}

// newMCPServer exposes the registered tools. Every call returns a result
// envelope; failures become "Error: <msg>" text.
func newMCPServer(reg *registry.Registry, transport string, logger *logrus.Logger) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("mcp-pubdev", Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	for _, name := range reg.GetToolNames() {
		tool, _ := reg.GetTool(name)
		if transport != "stdio" {
			logger.Infof("Registering tool: %s", name)
		}

		mcpSrv.AddTool(tool.Definition(), func(toolCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return callTool(toolCtx, reg, name, request.GetArguments(), transport, logger), nil
		})
	}

	return mcpSrv
}

// callTool runs the named tool and records failures in the tool error log
func callTool(ctx context.Context, reg *registry.Registry, name string, args map[string]any, transport string, logger *logrus.Logger) *mcp.CallToolResult {
	tool, ok := reg.GetTool(name)
	if !ok {
		return tools.ErrorResult(&tools.UnknownToolError{Name: name})
	}

	result, err := tools.Invoke(ctx, logger, tool, args)
	if err != nil {
		if transport != "stdio" {
			logger.WithError(err).Errorf("Tool execution failed: %s", name)
		}
		if errorLogger := tools.GetGlobalErrorLogger(); errorLogger.IsEnabled() {
			errorLogger.LogToolError(name, args, err, transport)
		}
	}
	return result
}

// performCleanup closes log files on shutdown
func performCleanup(logger *logrus.Logger) {
	if err := tools.GetGlobalErrorLogger().Close(); err != nil {
		logger.WithError(err).Warn("Failed to close tool error logger")
	}

	// closed last and silently, the logger may be writing to it
	if file := debugLogFile.Load(); file != nil {
		_ = file.Close()
	}
}

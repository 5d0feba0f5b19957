package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// httpOptions configures the Streamable HTTP transport
type httpOptions struct {
	Port           string
	AuthToken      string
	EndpointPath   string
	SessionTimeout time.Duration
}

// startStreamableHTTPServer serves MCP over Streamable HTTP until ctx is cancelled
func startStreamableHTTPServer(ctx context.Context, opts httpOptions, mcpServer *mcpserver.MCPServer, logger *logrus.Logger) error {
	logger.Infof("Starting Streamable HTTP server on port %s with endpoint %s", opts.Port, opts.EndpointPath)

	// heartbeat at a quarter of the session timeout
	heartbeatInterval := 30 * time.Second
	if opts.SessionTimeout > 0 {
		heartbeatInterval = opts.SessionTimeout / 4
	}

	serverOpts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(opts.EndpointPath),
		mcpserver.WithHeartbeatInterval(heartbeatInterval),
		mcpserver.WithLogger(&logrusAdapter{logger: logger}),
		mcpserver.WithHTTPContextFunc(protocolVersionLogger(logger)),
	}
	if opts.SessionTimeout > 0 {
		serverOpts = append(serverOpts, mcpserver.WithSessionIdManager(NewTimeoutSessionManager(opts.SessionTimeout, logger)))
	}

	var handler http.Handler = mcpserver.NewStreamableHTTPServer(mcpServer, serverOpts...)
	if opts.AuthToken != "" {
		handler = requireBearerToken(opts.AuthToken, logger, handler)
		logger.Info("Bearer token authentication enabled")
	}

	mux := http.NewServeMux()
	mux.Handle(opts.EndpointPath, handler)

	server := &http.Server{
		Addr:           ":" + opts.Port,
		Handler:        mux,
		ReadTimeout:    30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
		return err
	}

	logger.Info("HTTP server stopped gracefully")
	return nil
}

// requireBearerToken rejects requests whose Authorization header does not
// carry expectedToken
func requireBearerToken(expectedToken string, logger *logrus.Logger, next http.Handler) http.Handler {
	const bearerPrefix = "Bearer "

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(authHeader, bearerPrefix)

		switch {
		case authHeader == "":
			logger.Warn("Request missing Authorization header")
		case !found:
			logger.Warn("Invalid authorization format, expected Bearer token")
		case subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1:
			logger.Warn("Invalid authentication token")
		default:
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "unauthorised", http.StatusUnauthorized)
	})
}

// protocolVersionLogger records the MCP protocol version announced by clients
func protocolVersionLogger(logger *logrus.Logger) mcpserver.HTTPContextFunc {
	return func(ctx context.Context, req *http.Request) context.Context {
		version := req.Header.Get("MCP-Protocol-Version")
		switch {
		case version == "":
			logger.Debug("No MCP-Protocol-Version header, assuming 2025-06-18")
		case !isValidProtocolVersion(version):
			logger.Warnf("Unsupported MCP Protocol Version: %s", version)
		default:
			logger.Debugf("MCP Protocol Version: %s", version)
		}
		return ctx
	}
}

func isValidProtocolVersion(version string) bool {
	return slices.Contains([]string{"2025-06-18", "2025-03-26", "2024-11-05"}, version)
}

// TimeoutSessionManager issues UUID session IDs and expires sessions idle
// for longer than timeout
type TimeoutSessionManager struct {
	timeout  time.Duration
	logger   *logrus.Logger
	now      func() time.Time
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewTimeoutSessionManager creates a session manager
func NewTimeoutSessionManager(timeout time.Duration, logger *logrus.Logger) *TimeoutSessionManager {
	return &TimeoutSessionManager{
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

func (t *TimeoutSessionManager) Generate() string {
	id := uuid.NewString()

	t.mu.Lock()
	t.lastSeen[id] = t.now()
	t.mu.Unlock()

	return id
}

// Validate reports whether the session has been terminated or has expired
func (t *TimeoutSessionManager) Validate(sessionID string) (isTerminated bool, err error) {
	if sessionID == "" {
		return false, errors.New("empty session ID")
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return false, fmt.Errorf("invalid session ID: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	seen, ok := t.lastSeen[sessionID]
	if !ok {
		return true, nil
	}
	now := t.now()
	if now.Sub(seen) > t.timeout {
		delete(t.lastSeen, sessionID)
		t.logger.Debugf("Session expired: %s", sessionID)
		return true, nil
	}

	t.lastSeen[sessionID] = now
	return false, nil
}

func (t *TimeoutSessionManager) Terminate(sessionID string) (isNotAllowed bool, err error) {
	t.mu.Lock()
	delete(t.lastSeen, sessionID)
	t.mu.Unlock()

	t.logger.Debugf("Session terminated: %s", sessionID)
	return false, nil
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Debugf(format string, args ...any) {
	l.logger.Debugf(format, args...)
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Warnf(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}

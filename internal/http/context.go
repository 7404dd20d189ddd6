package http

import (
	"context"
	"log/slog"

	"github.com/example/campaign-availability/internal/logging"
)

type contextKey string

const (
	campaignIDContextKey contextKey = "campaign_id"
	sessionIDContextKey  contextKey = "session_id"
)

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithCampaignID injects the campaign identifier resolved from the request path.
func ContextWithCampaignID(ctx context.Context, campaignID string) context.Context {
	return context.WithValue(ctx, campaignIDContextKey, campaignID)
}

// CampaignIDFromContext extracts a campaign identifier previously associated with the context.
func CampaignIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(campaignIDContextKey).(string)
	return id, ok
}

// ContextWithSessionID injects the builder session identifier resolved from the request path.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// SessionIDFromContext extracts a builder session identifier previously associated with the context.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(string)
	return id, ok
}

package helpers

import (
	"context"
	"io"
	"log/slog"

	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// TestCtx returns a context carrying a test logger.
func TestCtx() context.Context {
	log := slog.New(logger.NewTestHandler(slog.LevelInfo))
	return logger.ToContext(context.Background(), log)
}

// TestCtxTo returns a context whose logger writes Cloud Run JSON to w at debug level.
func TestCtxTo(w io.Writer) context.Context {
	log := slog.New(logger.NewCloudRunHandlerTo(w, slog.LevelDebug))
	return logger.ToContext(context.Background(), log)
}

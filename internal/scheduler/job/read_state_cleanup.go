package job

import (
	"context"
	"log/slog"
)

type ReadStateCleaner interface {
	DeleteOrphanedGroupReads(ctx context.Context) (int64, error)
	DeleteStaleHiddenChats(ctx context.Context) (int64, error)
}

// RunReadStateCleanup runs every step even when an earlier one fails and
// returns the first error.
func RunReadStateCleanup(ctx context.Context, cleaner ReadStateCleaner) error {
	var firstErr error

	reads, err := cleaner.DeleteOrphanedGroupReads(ctx)
	if err != nil {
		slog.Error("Failed to delete orphaned group reads", "error", err)
		firstErr = err
	} else {
		slog.Info("Deleted orphaned group reads", "count", reads)
	}

	hidden, err := cleaner.DeleteStaleHiddenChats(ctx)
	if err != nil {
		slog.Error("Failed to delete stale hidden chats", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	} else {
		slog.Info("Deleted stale hidden chats", "count", hidden)
	}

	return firstErr
}

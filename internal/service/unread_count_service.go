package service

import (
	"ChatSyncAPI/internal/health"
	"ChatSyncAPI/internal/model"
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

type UnreadCountService struct {
	source  UnreadSource
	monitor *health.Monitor
}

func NewUnreadCountService(source UnreadSource, monitor *health.Monitor) *UnreadCountService {
	return &UnreadCountService{
		source:  source,
		monitor: monitor,
	}
}

// GetTotalUnreadCount sums the unread counts of all individual and group
// chats. A side whose query fails is logged and counted as zero.
func (s *UnreadCountService) GetTotalUnreadCount(ctx context.Context, userID string) int {
	var individual, group int

	var g errgroup.Group
	g.Go(func() error {
		individual = s.sum(ctx, userID, "individual", s.source.GetIndividualUnreadSummary)
		return nil
	})
	g.Go(func() error {
		group = s.sum(ctx, userID, "group", s.source.GetGroupUnreadSummary)
		return nil
	})
	_ = g.Wait()

	return individual + group
}

func (s *UnreadCountService) sum(ctx context.Context, userID, side string, fetch func(context.Context, string) ([]model.UnreadSummaryRow, error)) int {
	start := time.Now()
	rows, err := fetch(ctx, userID)
	if s.monitor != nil {
		s.monitor.Track(start, err)
	}
	if err != nil {
		slog.Error("Failed to fetch unread summary", "error", err, "userID", userID, "chatType", side)
		return 0
	}

	total := 0
	for _, row := range rows {
		total += nonNegative(row.UnreadCount)
	}
	return total
}

package repository

import (
	"ChatSyncAPI/internal/model"
	"context"
	stdsql "database/sql"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

type UnreadRepository struct {
	drv *sql.Driver
}

func NewUnreadRepository(drv *sql.Driver) *UnreadRepository {
	return &UnreadRepository{
		drv: drv,
	}
}

func (r *UnreadRepository) GetIndividualUnreadSummary(ctx context.Context, userID string) ([]model.UnreadSummaryRow, error) {
	rows, err := r.summary(ctx, "SELECT partner_user_id, unread_count FROM get_individual_unread_summary($1)", userID)
	if err != nil {
		return nil, fmt.Errorf("get_individual_unread_summary: %w", err)
	}
	return rows, nil
}

func (r *UnreadRepository) GetGroupUnreadSummary(ctx context.Context, userID string) ([]model.UnreadSummaryRow, error) {
	rows, err := r.summary(ctx, "SELECT group_id, unread_count FROM get_group_unread_summary($1)", userID)
	if err != nil {
		return nil, fmt.Errorf("get_group_unread_summary: %w", err)
	}
	return rows, nil
}

func (r *UnreadRepository) summary(ctx context.Context, query, userID string) ([]model.UnreadSummaryRow, error) {
	var rows sql.Rows
	if err := r.drv.Query(ctx, query, []any{userID}, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.UnreadSummaryRow
	for rows.Next() {
		var (
			chatID string
			unread stdsql.NullInt64
		)
		if err := rows.Scan(&chatID, &unread); err != nil {
			return nil, err
		}
		items = append(items, model.UnreadSummaryRow{
			ChatID:      chatID,
			UnreadCount: nullInt(unread),
		})
	}
	return items, rows.Err()
}

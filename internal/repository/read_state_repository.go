package repository

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
)

// ReadStateRepository prunes per-user read bookkeeping that no longer affects
// any chat list.
type ReadStateRepository struct {
	drv *sql.Driver
}

func NewReadStateRepository(drv *sql.Driver) *ReadStateRepository {
	return &ReadStateRepository{
		drv: drv,
	}
}

// DeleteOrphanedGroupReads removes read receipts of users who are no longer
// members of the message's group.
func (r *ReadStateRepository) DeleteOrphanedGroupReads(ctx context.Context) (int64, error) {
	builder := sql.Dialect(dialect.Postgres)

	gm := builder.Table("group_messages").As("gm")
	gp := builder.Table("group_participants").As("gp")
	reads := builder.Table("group_message_reads")

	membership := builder.Select(gm.C("id")).From(gm).
		Join(gp).On(gm.C("group_id"), gp.C("group_id")).
		Where(sql.And(
			sql.ColumnsEQ(gm.C("id"), reads.C("message_id")),
			sql.ColumnsEQ(gp.C("user_id"), reads.C("user_id")),
		))

	query, args := builder.Delete("group_message_reads").
		Where(sql.Not(sql.Exists(membership))).
		Query()

	return r.exec(ctx, query, args)
}

// DeleteStaleHiddenChats removes hidden markers for conversations that no
// longer contain any message.
func (r *ReadStateRepository) DeleteStaleHiddenChats(ctx context.Context) (int64, error) {
	builder := sql.Dialect(dialect.Postgres)

	m := builder.Table("messages").As("m")
	hidden := builder.Table("hidden_chats")

	conversation := builder.Select(m.C("id")).From(m).
		Where(sql.Or(
			sql.And(
				sql.ColumnsEQ(m.C("sender_id"), hidden.C("user_id")),
				sql.ColumnsEQ(m.C("receiver_id"), hidden.C("partner_id")),
			),
			sql.And(
				sql.ColumnsEQ(m.C("sender_id"), hidden.C("partner_id")),
				sql.ColumnsEQ(m.C("receiver_id"), hidden.C("user_id")),
			),
		))

	query, args := builder.Delete("hidden_chats").
		Where(sql.Not(sql.Exists(conversation))).
		Query()

	return r.exec(ctx, query, args)
}

func (r *ReadStateRepository) exec(ctx context.Context, query string, args []any) (int64, error) {
	var res stdsql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("exec %q: %w", query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

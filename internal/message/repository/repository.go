package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/quickchat/server/internal/common/constants"
	"github.com/quickchat/server/internal/message/domain"
)

var ErrMessageNotFound = errors.New("message not found")

type Repository interface {
	Create(ctx context.Context, msg domain.Message) error
	MarkSeen(ctx context.Context, id domain.ID) error
	FetchConversationAndMarkSeen(ctx context.Context, me, other string) ([]domain.Message, error)
	UnseenCounts(ctx context.Context, receiverID string) (map[string]int, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, msg domain.Message) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, text, image_url, seen, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(msg.ID),
		msg.SenderID,
		msg.ReceiverID,
		msg.Text,
		msg.ImageURL,
		msg.Seen,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// MarkSeen flips the seen flag. Marking an already-seen message matches the
// row and stays a no-op success; only a missing row is an error.
func (r *PgRepository) MarkSeen(ctx context.Context, id domain.ID) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE messages SET seen = TRUE WHERE id = $1`,
		string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to mark message seen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// conversationTxOptions pins snapshot isolation for the mark+fetch pair. Under
// READ COMMITTED each statement would take its own snapshot, so a message
// committed between the UPDATE and the SELECT could be returned while staying
// unseen in storage. REPEATABLE READ makes both statements share one snapshot:
// a concurrent send lands either before it (marked and returned) or after it
// (neither, picked up by the next fetch).
var conversationTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead}

const conversationTxMaxAttempts = 3

// FetchConversationAndMarkSeen returns both directions of the conversation in
// creation order and, in the same snapshot-isolated transaction, marks every
// unseen message from other to me as seen. Serialization failures are retried.
func (r *PgRepository) FetchConversationAndMarkSeen(ctx context.Context, me, other string) ([]domain.Message, error) {
	var (
		messages []domain.Message
		err      error
	)
	for attempt := 1; attempt <= conversationTxMaxAttempts; attempt++ {
		messages, err = r.fetchConversationOnce(ctx, me, other)
		if err == nil || !isSerializationFailure(err) {
			return messages, err
		}
	}
	return nil, fmt.Errorf("conversation tx kept conflicting after %d attempts: %w", conversationTxMaxAttempts, err)
}

func (r *PgRepository) fetchConversationOnce(ctx context.Context, me, other string) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, conversationTxOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to begin conversation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(
		ctx,
		`UPDATE messages SET seen = TRUE
		 WHERE sender_id = $1 AND receiver_id = $2 AND NOT seen`,
		other,
		me,
	); err != nil {
		return nil, fmt.Errorf("failed to mark conversation seen: %w", err)
	}

	rows, err := tx.Query(
		ctx,
		`SELECT id, sender_id, receiver_id, text, image_url, seen, created_at
		 FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2)
		    OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at ASC, id ASC`,
		me,
		other,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit conversation tx: %w", err)
	}

	return messages, nil
}

func (r *PgRepository) UnseenCounts(ctx context.Context, receiverID string) (map[string]int, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT sender_id, COUNT(*)
		 FROM messages
		 WHERE receiver_id = $1 AND NOT seen
		 GROUP BY sender_id`,
		receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count unseen messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var senderID string
		var count int
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan unseen count: %w", err)
		}
		counts[senderID] = count
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows iteration error: %w", rows.Err())
	}

	return counts, nil
}

// isSerializationFailure reports whether err carries SQLSTATE 40001, the
// conflict REPEATABLE READ raises when concurrent writes touch the snapshot.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.ImageURL, &m.Seen, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows iteration error: %w", rows.Err())
	}

	return messages, nil
}

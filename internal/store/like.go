package store

import (
	"context"
	"fmt"
	"time"

	"github.com/inhahackathon/foodmarket/types"
)

// CreateLike inserts the (userID, boardID) pair. It reports false when the pair already existed.
func (s *PostgresStore) CreateLike(ctx context.Context, userID, boardID int64) (bool, error) {
	const query = `
		INSERT INTO likes (user_id, board_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, board_id) DO NOTHING`
	result, err := s.db.ExecContext(ctx, query, userID, boardID, time.Now())
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteLike removes the (userID, boardID) pair if present.
func (s *PostgresStore) DeleteLike(ctx context.Context, userID, boardID int64) error {
	const query = `DELETE FROM likes WHERE user_id = $1 AND board_id = $2`
	if _, err := s.db.ExecContext(ctx, query, userID, boardID); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

// ListLikedBoards returns the boards liked by userID, most recently liked first.
func (s *PostgresStore) ListLikedBoards(ctx context.Context, userID int64) ([]types.BoardSummary, error) {
	query := summarySelect + `
		JOIN likes liked ON liked.board_id = b.id AND liked.user_id = $1
		ORDER BY liked.created_at DESC, b.id DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list liked boards: %w", err)
	}
	return collectSummaries(rows)
}

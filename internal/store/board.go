package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/inhahackathon/foodmarket/types"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

const boardColumns = `id, user_id, product_name, product_img, expiration_date, price, description, location, created_at, updated_at`

// summarySelect joins a board with its writer and like statistics. $1 is the viewer id.
const summarySelect = `
	SELECT b.id, b.user_id, b.product_name, b.product_img, b.expiration_date, b.price,
	       b.description, b.location, b.created_at, b.updated_at,
	       u.id, u.uid, u.name, u.profile_img_url, u.location, u.role, u.provider, u.created_at, u.updated_at,
	       (SELECT COUNT(1) FROM likes cnt WHERE cnt.board_id = b.id),
	       EXISTS (SELECT 1 FROM likes mine WHERE mine.board_id = b.id AND mine.user_id = $1)
	FROM boards b
	JOIN users u ON u.id = b.user_id`

func (s *PostgresStore) GetBoard(ctx context.Context, id int64) (types.Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards WHERE id = $1`
	var board types.Board
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&board.ID,
		&board.UserID,
		&board.ProductName,
		&board.ProductImg,
		&board.ExpirationDate,
		&board.Price,
		&board.Description,
		&board.Location,
		&board.CreatedAt,
		&board.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Board{}, ErrNotFound
		}
		return types.Board{}, err
	}
	return board, nil
}

func (s *PostgresStore) CreateBoard(ctx context.Context, board types.Board) (types.Board, error) {
	now := time.Now()
	board.CreatedAt = now
	board.UpdatedAt = now

	const query = `
		INSERT INTO boards (user_id, product_name, product_img, expiration_date, price, description, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := s.db.QueryRowContext(
		ctx,
		query,
		board.UserID,
		board.ProductName,
		board.ProductImg,
		board.ExpirationDate,
		board.Price,
		board.Description,
		board.Location,
		board.CreatedAt,
		board.UpdatedAt,
	).Scan(&board.ID); err != nil {
		return types.Board{}, fmt.Errorf("insert board: %w", err)
	}
	return board, nil
}

func (s *PostgresStore) UpdateBoardImage(ctx context.Context, id int64, productImg string) error {
	const query = `UPDATE boards SET product_img = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, productImg, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update board image: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteBoard(ctx context.Context, id int64) error {
	const query = `DELETE FROM boards WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListBoardIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	const query = `SELECT id FROM boards WHERE user_id = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list board ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *PostgresStore) DeleteBoardsByUser(ctx context.Context, userID int64) (int64, error) {
	const query = `DELETE FROM boards WHERE user_id = $1`
	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user boards: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) GetBoardSummary(ctx context.Context, boardID, viewerID int64) (types.BoardSummary, error) {
	query := summarySelect + ` WHERE b.id = $2`
	summary, err := scanSummary(s.db.QueryRowContext(ctx, query, viewerID, boardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.BoardSummary{}, ErrNotFound
		}
		return types.BoardSummary{}, err
	}
	return summary, nil
}

func (s *PostgresStore) ListBoardSummaries(ctx context.Context, r ListBoardsRequest) ([]types.BoardSummary, error) {
	if r.Offset < 0 {
		r.Offset = 0
	}
	if r.Limit < 1 {
		r.Limit = defaultListLimit
	}
	if r.Limit > maxListLimit {
		r.Limit = maxListLimit
	}

	query := summarySelect + `
		WHERE ($2 = '' OR b.location = $2)
		ORDER BY b.created_at DESC, b.id DESC
		OFFSET $3 LIMIT $4`
	rows, err := s.db.QueryContext(ctx, query, r.ViewerID, r.Location, r.Offset, r.Limit)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return collectSummaries(rows)
}

func collectSummaries(rows *sql.Rows) ([]types.BoardSummary, error) {
	defer rows.Close()

	summaries := make([]types.BoardSummary, 0)
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func scanSummary(row rowScanner) (types.BoardSummary, error) {
	var summary types.BoardSummary
	err := row.Scan(
		&summary.Board.ID,
		&summary.Board.UserID,
		&summary.Board.ProductName,
		&summary.Board.ProductImg,
		&summary.Board.ExpirationDate,
		&summary.Board.Price,
		&summary.Board.Description,
		&summary.Board.Location,
		&summary.Board.CreatedAt,
		&summary.Board.UpdatedAt,
		&summary.Writer.ID,
		&summary.Writer.UID,
		&summary.Writer.Name,
		&summary.Writer.ProfileImgURL,
		&summary.Writer.Location,
		&summary.Writer.Role,
		&summary.Writer.Provider,
		&summary.Writer.CreatedAt,
		&summary.Writer.UpdatedAt,
		&summary.LikeCount,
		&summary.IsLike,
	)
	return summary, err
}

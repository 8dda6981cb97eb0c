package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/inhahackathon/foodmarket/types"
)

const userColumns = `id, uid, name, profile_img_url, location, role, provider, created_at, updated_at`

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) GetUserByUID(ctx context.Context, uid string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, uid))
}

func (s *PostgresStore) CreateUser(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (uid, name, profile_img_url, location, role, provider, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := s.db.QueryRowContext(
		ctx,
		query,
		user.UID,
		user.Name,
		user.ProfileImgURL,
		user.Location,
		user.Role,
		user.Provider,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET name = $1,
			profile_img_url = $2,
			location = $3,
			role = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := s.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.ProfileImgURL,
		user.Location,
		user.Role,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
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

func (s *PostgresStore) CreateOAuthUser(ctx context.Context, user types.OAuthUser) (types.OAuthUser, error) {
	user.CreatedAt = time.Now()

	const query = `
		INSERT INTO oauth_users (user_id, provider_user_id, email, name, picture, provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := s.db.QueryRowContext(
		ctx,
		query,
		user.UserID,
		user.ProviderUserID,
		user.Email,
		user.Name,
		user.Picture,
		user.Provider,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.OAuthUser{}, ErrConflict
		}
		return types.OAuthUser{}, fmt.Errorf("insert oauth user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) CreateUserInfoSet(ctx context.Context, set types.UserInfoSet) error {
	const query = `
		INSERT INTO user_info_sets (user_id, notification_enabled, like_alarm_enabled)
		VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, set.UserID, set.NotificationEnabled, set.LikeAlarmEnabled); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user info set: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.UID,
		&user.Name,
		&user.ProfileImgURL,
		&user.Location,
		&user.Role,
		&user.Provider,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

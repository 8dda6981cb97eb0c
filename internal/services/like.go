package services

import (
	"context"
	"fmt"

	"github.com/inhahackathon/foodmarket/internal/apperr"
	"github.com/inhahackathon/foodmarket/internal/store"
	"github.com/inhahackathon/foodmarket/types"
)

// LikeService manages the boards a user has marked as liked.
type LikeService struct {
	store store.Store
}

func NewLikeService(st store.Store) *LikeService {
	return &LikeService{store: st}
}

// CreateLike marks boardID as liked by userID. Liking twice is not an error.
func (s *LikeService) CreateLike(ctx context.Context, userID, boardID int64) error {
	if _, err := s.store.GetBoard(ctx, boardID); err != nil {
		return boardLookupErr(err)
	}
	if _, err := s.store.CreateLike(ctx, userID, boardID); err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

// DeleteLike removes the like if present.
func (s *LikeService) DeleteLike(ctx context.Context, userID, boardID int64) error {
	if err := s.store.DeleteLike(ctx, userID, boardID); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

// ListLikes returns the boards liked by targetUserID, newest like first.
// Only the user themself may read the list.
func (s *LikeService) ListLikes(ctx context.Context, targetUserID, callerID int64) ([]types.BoardResponse, error) {
	if targetUserID != callerID {
		return nil, apperr.New(apperr.ErrPermissionDenied, "cannot read another user's likes")
	}

	summaries, err := s.store.ListLikedBoards(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	return toResponses(summaries), nil
}

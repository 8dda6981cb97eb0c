package store

import (
	"context"

	"github.com/inhahackathon/foodmarket/types"
)

// Store is the persistence boundary used by the services.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (types.User, error)
	GetUserByUID(ctx context.Context, uid string) (types.User, error)
	CreateUser(ctx context.Context, user types.User) (types.User, error)
	UpdateUser(ctx context.Context, user types.User) (types.User, error)
	DeleteUser(ctx context.Context, id int64) error
	CreateOAuthUser(ctx context.Context, user types.OAuthUser) (types.OAuthUser, error)
	CreateUserInfoSet(ctx context.Context, set types.UserInfoSet) error

	GetBoard(ctx context.Context, id int64) (types.Board, error)
	CreateBoard(ctx context.Context, board types.Board) (types.Board, error)
	UpdateBoardImage(ctx context.Context, id int64, productImg string) error
	DeleteBoard(ctx context.Context, id int64) error
	ListBoardIDsByUser(ctx context.Context, userID int64) ([]int64, error)
	DeleteBoardsByUser(ctx context.Context, userID int64) (int64, error)
	GetBoardSummary(ctx context.Context, boardID, viewerID int64) (types.BoardSummary, error)
	ListBoardSummaries(ctx context.Context, r ListBoardsRequest) ([]types.BoardSummary, error)

	CreateLike(ctx context.Context, userID, boardID int64) (bool, error)
	DeleteLike(ctx context.Context, userID, boardID int64) error
	ListLikedBoards(ctx context.Context, userID int64) ([]types.BoardSummary, error)

	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// ListBoardsRequest filters the board listing.
// An empty Location lists boards from every location.
type ListBoardsRequest struct {
	Location string
	ViewerID int64
	Offset   int
	Limit    int
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inhahackathon/foodmarket/internal/apperr"
	"github.com/inhahackathon/foodmarket/internal/store"
	"github.com/inhahackathon/foodmarket/internal/upload"
	"github.com/inhahackathon/foodmarket/types"
	"github.com/sirupsen/logrus"
)

// FileSaver stores uploaded images. Implemented by upload.FileHandler.
type FileSaver interface {
	SaveFile(ctx context.Context, boardID *int64, file upload.File) (string, error)
}

// CreateBoardRequest holds the fields of a new listing.
type CreateBoardRequest struct {
	ProductName    string
	Price          int64
	ExpirationDate time.Time
	Description    string
	Image          *upload.File
}

// ListBoardsRequest filters the board listing. An empty Location means the
// viewer's own location.
type ListBoardsRequest struct {
	Location string
	Offset   int
	Limit    int
}

// BoardService encapsulates board use-cases.
type BoardService struct {
	store  store.Store
	files  FileSaver
	events EventPublisher
	logger logrus.FieldLogger
}

func NewBoardService(st store.Store, files FileSaver, events EventPublisher, logger logrus.FieldLogger) *BoardService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BoardService{store: st, files: files, events: events, logger: logger}
}

// CreateBoard stores a listing in the writer's location, then its image under /board/{id}.
func (s *BoardService) CreateBoard(ctx context.Context, userID int64, req CreateBoardRequest) (types.BoardResponse, error) {
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.Description = strings.TrimSpace(req.Description)
	if req.ProductName == "" {
		return types.BoardResponse{}, apperr.New(apperr.ErrNotAllowedValue, "product name is required")
	}
	if req.Price < 0 {
		return types.BoardResponse{}, apperr.New(apperr.ErrNotAllowedValue, "price must not be negative")
	}

	writer, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return types.BoardResponse{}, userLookupErr(err)
	}

	board, err := s.store.CreateBoard(ctx, types.Board{
		UserID:         writer.ID,
		ProductName:    req.ProductName,
		ExpirationDate: req.ExpirationDate,
		Price:          req.Price,
		Description:    req.Description,
		Location:       writer.Location,
	})
	if err != nil {
		return types.BoardResponse{}, fmt.Errorf("create board: %w", err)
	}

	if req.Image != nil {
		p, err := s.files.SaveFile(ctx, &board.ID, *req.Image)
		if err != nil {
			if delErr := s.store.DeleteBoard(ctx, board.ID); delErr != nil {
				s.logger.WithError(delErr).WithField("board_id", board.ID).Error("failed to remove board after image upload failure")
			}
			return types.BoardResponse{}, err
		}
		if err := s.store.UpdateBoardImage(ctx, board.ID, p); err != nil {
			return types.BoardResponse{}, fmt.Errorf("update board image: %w", err)
		}
	}

	return s.GetBoard(ctx, board.ID, userID)
}

func (s *BoardService) GetBoard(ctx context.Context, boardID, viewerID int64) (types.BoardResponse, error) {
	summary, err := s.store.GetBoardSummary(ctx, boardID, viewerID)
	if err != nil {
		return types.BoardResponse{}, boardLookupErr(err)
	}
	return summary.ToResponse(), nil
}

// DeleteBoard removes a board owned by callerID.
func (s *BoardService) DeleteBoard(ctx context.Context, boardID, callerID int64) error {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return boardLookupErr(err)
	}
	if board.UserID != callerID {
		return apperr.New(apperr.ErrPermissionDenied, "only the writer can delete this board")
	}
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return boardLookupErr(err)
	}

	publish(ctx, s.events, s.logger, types.BoardsDeletedEvent{UserID: callerID, BoardIDs: []int64{boardID}})
	return nil
}

// ListBoards returns boards in the requested location, newest first.
func (s *BoardService) ListBoards(ctx context.Context, viewerID int64, req ListBoardsRequest) ([]types.BoardResponse, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		viewer, err := s.store.GetUserByID(ctx, viewerID)
		if err != nil {
			return nil, userLookupErr(err)
		}
		location = viewer.Location
	}

	summaries, err := s.store.ListBoardSummaries(ctx, store.ListBoardsRequest{
		Location: location,
		ViewerID: viewerID,
		Offset:   req.Offset,
		Limit:    req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return toResponses(summaries), nil
}

// DeleteAllUserBoard removes every board written by user.
func (s *BoardService) DeleteAllUserBoard(ctx context.Context, user types.User) ([]int64, error) {
	var ids []int64
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		var err error
		ids, err = deleteUserBoards(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.logger, types.BoardsDeletedEvent{UserID: user.ID, BoardIDs: ids})
	return ids, nil
}

func deleteUserBoards(ctx context.Context, tx store.Store, userID int64) ([]int64, error) {
	ids, err := tx.ListBoardIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user boards: %w", err)
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if _, err := tx.DeleteBoardsByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete user boards: %w", err)
	}
	return ids, nil
}

func toResponses(summaries []types.BoardSummary) []types.BoardResponse {
	responses := make([]types.BoardResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, summary.ToResponse())
	}
	return responses
}

func userLookupErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(apperr.ErrNotFound, err, "user not found")
	}
	return fmt.Errorf("get user: %w", err)
}

func boardLookupErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(apperr.ErrNotFound, err, "board not found")
	}
	return fmt.Errorf("get board: %w", err)
}

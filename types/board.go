package types

import "time"

// DateLayout is the wire format of calendar dates such as expiration dates.
const DateLayout = "2006-01-02"

// Board is a food listing posted by a user.
type Board struct {
	ID             int64     `json:"boardId" db:"id"`
	UserID         int64     `json:"userId" db:"user_id"`
	ProductName    string    `json:"productName" db:"product_name"`
	ProductImg     string    `json:"productImg" db:"product_img"`
	ExpirationDate time.Time `json:"expirationDate" db:"expiration_date"`
	Price          int64     `json:"price" db:"price"`
	Description    string    `json:"description" db:"description"`
	Location       string    `json:"location" db:"location"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// BoardSummary is a board joined with its writer and like statistics.
type BoardSummary struct {
	Board     Board
	Writer    User
	LikeCount int64
	IsLike    bool
}

// BoardResponse is the listing shape returned by board and like endpoints.
// IsLike mirrors the general board listing even where every item is liked.
type BoardResponse struct {
	BoardID        int64   `json:"boardId"`
	Writer         UserDTO `json:"writer"`
	ProductName    string  `json:"productName"`
	ProductImg     string  `json:"productImg"`
	ExpirationDate string  `json:"expirationDate"`
	Price          int64   `json:"price"`
	Description    string  `json:"description"`
	LikeCount      int64   `json:"likeCount"`
	IsLike         bool    `json:"isLike"`
}

// ToResponse converts a summary into its wire representation.
func (s BoardSummary) ToResponse() BoardResponse {
	var expiration string
	if !s.Board.ExpirationDate.IsZero() {
		expiration = s.Board.ExpirationDate.Format(DateLayout)
	}
	return BoardResponse{
		BoardID:        s.Board.ID,
		Writer:         s.Writer.ToDTO(),
		ProductName:    s.Board.ProductName,
		ProductImg:     s.Board.ProductImg,
		ExpirationDate: expiration,
		Price:          s.Board.Price,
		Description:    s.Board.Description,
		LikeCount:      s.LikeCount,
		IsLike:         s.IsLike,
	}
}

// Like marks a board as liked by a user. At most one exists per (UserID, BoardID).
type Like struct {
	UserID    int64     `json:"userId" db:"user_id"`
	BoardID   int64     `json:"boardId" db:"board_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// BoardsDeletedEvent is published after boards have been removed.
type BoardsDeletedEvent struct {
	UserID   int64   `json:"userId"`
	BoardIDs []int64 `json:"boardIds"`
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inhahackathon/foodmarket/internal/auth"
	"github.com/inhahackathon/foodmarket/internal/services"
	"github.com/inhahackathon/foodmarket/types"
	"github.com/sirupsen/logrus"
)

const (
	formFieldProductName    = "productName"
	formFieldPrice          = "price"
	formFieldExpirationDate = "expirationDate"
	formFieldDescription    = "description"
)

// BoardHandler serves the board listing endpoints.
type BoardHandler struct {
	boardService *services.BoardService
	logger       logrus.FieldLogger
}

func NewBoardHandler(boardService *services.BoardService, logger logrus.FieldLogger) *BoardHandler {
	return &BoardHandler{boardService: boardService, logger: logger}
}

// BoardRouter registers board routes. Every route requires authentication.
func BoardRouter(r chi.Router, h *BoardHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Post("/", h.CreateBoard)
	r.Get("/list", h.ListBoards)
	r.Get("/{boardId}", h.GetBoard)
	r.Delete("/{boardId}", h.DeleteBoard)
}

// CreateBoard accepts a multipart form with an optional image in "file".
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	req, err := parseBoardForm(r)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	file, closer, err := formFile(r.MultipartForm, formFieldFile)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}
	req.Image = file

	board, err := h.boardService.CreateBoard(r.Context(), auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusCreated, map[string]any{"board": board})
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseIDParam(r, "boardId")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	board, err := h.boardService.GetBoard(r.Context(), boardID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"board": board})
}

func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseIDParam(r, "boardId")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.boardService.DeleteBoard(r.Context(), boardID, auth.UserIDFromContext(r.Context())); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, nil)
}

// ListBoards lists boards in ?location=, defaulting to the caller's location.
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := parsePagination(r)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	boards, err := h.boardService.ListBoards(r.Context(), auth.UserIDFromContext(r.Context()), services.ListBoardsRequest{
		Location: r.URL.Query().Get("location"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"boardList": boards})
}

func parseBoardForm(r *http.Request) (services.CreateBoardRequest, error) {
	productName := strings.TrimSpace(r.FormValue(formFieldProductName))
	if productName == "" {
		return services.CreateBoardRequest{}, errors.New("productName is required")
	}

	var price int64
	if raw := strings.TrimSpace(r.FormValue(formFieldPrice)); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			return services.CreateBoardRequest{}, errors.New("invalid price")
		}
		price = parsed
	}

	var expiration time.Time
	if raw := strings.TrimSpace(r.FormValue(formFieldExpirationDate)); raw != "" {
		parsed, err := time.Parse(types.DateLayout, raw)
		if err != nil {
			return services.CreateBoardRequest{}, errors.New("invalid expirationDate, expected YYYY-MM-DD")
		}
		expiration = parsed
	}

	return services.CreateBoardRequest{
		ProductName:    productName,
		Price:          price,
		ExpirationDate: expiration,
		Description:    r.FormValue(formFieldDescription),
	}, nil
}

// Package memstore is an in-memory store.Store used by unit tests.
// It enforces the same uniqueness and referential rules as the Postgres schema.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/inhahackathon/foodmarket/internal/store"
	"github.com/inhahackathon/foodmarket/types"
)

// ErrForeignKey is returned when a write would break a reference between rows.
var ErrForeignKey = errors.New("foreign key violation")

type likeKey struct {
	userID  int64
	boardID int64
}

type data struct {
	users      map[int64]types.User
	oauthUsers map[int64]types.OAuthUser
	infoSets   map[int64]types.UserInfoSet
	boards     map[int64]types.Board
	likes      map[likeKey]types.Like

	nextUserID  int64
	nextOAuthID int64
	nextBoardID int64
	clock       int64
}

func newData() *data {
	return &data{
		users:      make(map[int64]types.User),
		oauthUsers: make(map[int64]types.OAuthUser),
		infoSets:   make(map[int64]types.UserInfoSet),
		boards:     make(map[int64]types.Board),
		likes:      make(map[likeKey]types.Like),
	}
}

func (d *data) clone() *data {
	c := *d
	c.users = make(map[int64]types.User, len(d.users))
	for k, v := range d.users {
		c.users[k] = v
	}
	c.oauthUsers = make(map[int64]types.OAuthUser, len(d.oauthUsers))
	for k, v := range d.oauthUsers {
		c.oauthUsers[k] = v
	}
	c.infoSets = make(map[int64]types.UserInfoSet, len(d.infoSets))
	for k, v := range d.infoSets {
		c.infoSets[k] = v
	}
	c.boards = make(map[int64]types.Board, len(d.boards))
	for k, v := range d.boards {
		c.boards[k] = v
	}
	c.likes = make(map[likeKey]types.Like, len(d.likes))
	for k, v := range d.likes {
		c.likes[k] = v
	}
	return &c
}

// now returns strictly increasing timestamps so ordering is deterministic.
func (d *data) now() time.Time {
	d.clock++
	return time.Unix(1_700_000_000+d.clock, 0).UTC()
}

// Store is a thread-safe in-memory implementation of store.Store.
type Store struct {
	mu   *sync.Mutex
	data *data
	inTx bool

	// FailOn makes the named operation fail with the given error. Keys are method names.
	FailOn map[string]error
}

func New() *Store {
	return &Store{mu: &sync.Mutex{}, data: newData(), FailOn: make(map[string]error)}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) fail(op string) error {
	if s.FailOn == nil {
		return nil
	}
	return s.FailOn[op]
}

// WithTx runs fn against a copy of the data and keeps the copy only when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return errors.New("already in transaction")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{mu: s.mu, data: s.data.clone(), inTx: true, FailOn: s.FailOn}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (types.User, error) {
	defer s.lock()()
	user, ok := s.data.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUID(ctx context.Context, uid string) (types.User, error) {
	defer s.lock()()
	for _, user := range s.data.users {
		if user.UID == uid {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (s *Store) CreateUser(ctx context.Context, user types.User) (types.User, error) {
	defer s.lock()()
	if err := s.fail("CreateUser"); err != nil {
		return types.User{}, err
	}
	for _, existing := range s.data.users {
		if existing.UID == user.UID {
			return types.User{}, store.ErrConflict
		}
	}
	s.data.nextUserID++
	user.ID = s.data.nextUserID
	user.CreatedAt = s.data.now()
	user.UpdatedAt = user.CreatedAt
	s.data.users[user.ID] = user
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user types.User) (types.User, error) {
	defer s.lock()()
	if err := s.fail("UpdateUser"); err != nil {
		return types.User{}, err
	}
	existing, ok := s.data.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	existing.Name = user.Name
	existing.ProfileImgURL = user.ProfileImgURL
	existing.Location = user.Location
	existing.Role = user.Role
	existing.UpdatedAt = s.data.now()
	s.data.users[user.ID] = existing
	return existing, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	defer s.lock()()
	if err := s.fail("DeleteUser"); err != nil {
		return err
	}
	if _, ok := s.data.users[id]; !ok {
		return store.ErrNotFound
	}
	for _, board := range s.data.boards {
		if board.UserID == id {
			return ErrForeignKey
		}
	}
	delete(s.data.users, id)
	delete(s.data.infoSets, id)
	for key, oauthUser := range s.data.oauthUsers {
		if oauthUser.UserID == id {
			delete(s.data.oauthUsers, key)
		}
	}
	for key := range s.data.likes {
		if key.userID == id {
			delete(s.data.likes, key)
		}
	}
	return nil
}

func (s *Store) CreateOAuthUser(ctx context.Context, user types.OAuthUser) (types.OAuthUser, error) {
	defer s.lock()()
	if err := s.fail("CreateOAuthUser"); err != nil {
		return types.OAuthUser{}, err
	}
	if _, ok := s.data.users[user.UserID]; !ok {
		return types.OAuthUser{}, ErrForeignKey
	}
	for _, existing := range s.data.oauthUsers {
		if existing.UserID == user.UserID {
			return types.OAuthUser{}, store.ErrConflict
		}
	}
	s.data.nextOAuthID++
	user.ID = s.data.nextOAuthID
	user.CreatedAt = s.data.now()
	s.data.oauthUsers[user.ID] = user
	return user, nil
}

func (s *Store) CreateUserInfoSet(ctx context.Context, set types.UserInfoSet) error {
	defer s.lock()()
	if err := s.fail("CreateUserInfoSet"); err != nil {
		return err
	}
	if _, ok := s.data.users[set.UserID]; !ok {
		return ErrForeignKey
	}
	if _, ok := s.data.infoSets[set.UserID]; ok {
		return store.ErrConflict
	}
	s.data.infoSets[set.UserID] = set
	return nil
}

func (s *Store) GetBoard(ctx context.Context, id int64) (types.Board, error) {
	defer s.lock()()
	board, ok := s.data.boards[id]
	if !ok {
		return types.Board{}, store.ErrNotFound
	}
	return board, nil
}

func (s *Store) CreateBoard(ctx context.Context, board types.Board) (types.Board, error) {
	defer s.lock()()
	if err := s.fail("CreateBoard"); err != nil {
		return types.Board{}, err
	}
	if _, ok := s.data.users[board.UserID]; !ok {
		return types.Board{}, ErrForeignKey
	}
	s.data.nextBoardID++
	board.ID = s.data.nextBoardID
	board.CreatedAt = s.data.now()
	board.UpdatedAt = board.CreatedAt
	s.data.boards[board.ID] = board
	return board, nil
}

func (s *Store) UpdateBoardImage(ctx context.Context, id int64, productImg string) error {
	defer s.lock()()
	if err := s.fail("UpdateBoardImage"); err != nil {
		return err
	}
	board, ok := s.data.boards[id]
	if !ok {
		return store.ErrNotFound
	}
	board.ProductImg = productImg
	board.UpdatedAt = s.data.now()
	s.data.boards[id] = board
	return nil
}

func (s *Store) DeleteBoard(ctx context.Context, id int64) error {
	defer s.lock()()
	if err := s.fail("DeleteBoard"); err != nil {
		return err
	}
	if _, ok := s.data.boards[id]; !ok {
		return store.ErrNotFound
	}
	s.deleteBoardLocked(id)
	return nil
}

func (s *Store) deleteBoardLocked(id int64) {
	delete(s.data.boards, id)
	for key := range s.data.likes {
		if key.boardID == id {
			delete(s.data.likes, key)
		}
	}
}

func (s *Store) ListBoardIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	defer s.lock()()
	ids := make([]int64, 0)
	for id, board := range s.data.boards {
		if board.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) DeleteBoardsByUser(ctx context.Context, userID int64) (int64, error) {
	defer s.lock()()
	if err := s.fail("DeleteBoardsByUser"); err != nil {
		return 0, err
	}
	var deleted int64
	for id, board := range s.data.boards {
		if board.UserID == userID {
			s.deleteBoardLocked(id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) GetBoardSummary(ctx context.Context, boardID, viewerID int64) (types.BoardSummary, error) {
	defer s.lock()()
	board, ok := s.data.boards[boardID]
	if !ok {
		return types.BoardSummary{}, store.ErrNotFound
	}
	return s.summaryLocked(board, viewerID), nil
}

func (s *Store) ListBoardSummaries(ctx context.Context, r store.ListBoardsRequest) ([]types.BoardSummary, error) {
	defer s.lock()()
	boards := make([]types.Board, 0)
	for _, board := range s.data.boards {
		if r.Location == "" || board.Location == r.Location {
			boards = append(boards, board)
		}
	}
	sort.Slice(boards, func(i, j int) bool {
		if !boards[i].CreatedAt.Equal(boards[j].CreatedAt) {
			return boards[i].CreatedAt.After(boards[j].CreatedAt)
		}
		return boards[i].ID > boards[j].ID
	})

	limit := r.Limit
	if limit < 1 {
		limit = 20
	}
	offset := r.Offset
	if offset < 0 {
		offset = 0
	}
	summaries := make([]types.BoardSummary, 0)
	for i := offset; i < len(boards) && len(summaries) < limit; i++ {
		summaries = append(summaries, s.summaryLocked(boards[i], r.ViewerID))
	}
	return summaries, nil
}

func (s *Store) CreateLike(ctx context.Context, userID, boardID int64) (bool, error) {
	defer s.lock()()
	if err := s.fail("CreateLike"); err != nil {
		return false, err
	}
	if _, ok := s.data.users[userID]; !ok {
		return false, ErrForeignKey
	}
	if _, ok := s.data.boards[boardID]; !ok {
		return false, ErrForeignKey
	}
	key := likeKey{userID: userID, boardID: boardID}
	if _, ok := s.data.likes[key]; ok {
		return false, nil
	}
	s.data.likes[key] = types.Like{UserID: userID, BoardID: boardID, CreatedAt: s.data.now()}
	return true, nil
}

func (s *Store) DeleteLike(ctx context.Context, userID, boardID int64) error {
	defer s.lock()()
	if err := s.fail("DeleteLike"); err != nil {
		return err
	}
	delete(s.data.likes, likeKey{userID: userID, boardID: boardID})
	return nil
}

func (s *Store) ListLikedBoards(ctx context.Context, userID int64) ([]types.BoardSummary, error) {
	defer s.lock()()
	likes := make([]types.Like, 0)
	for key, like := range s.data.likes {
		if key.userID == userID {
			likes = append(likes, like)
		}
	}
	sort.Slice(likes, func(i, j int) bool {
		return likes[i].CreatedAt.After(likes[j].CreatedAt)
	})

	summaries := make([]types.BoardSummary, 0, len(likes))
	for _, like := range likes {
		summaries = append(summaries, s.summaryLocked(s.data.boards[like.BoardID], userID))
	}
	return summaries, nil
}

func (s *Store) summaryLocked(board types.Board, viewerID int64) types.BoardSummary {
	summary := types.BoardSummary{Board: board, Writer: s.data.users[board.UserID]}
	for key := range s.data.likes {
		if key.boardID != board.ID {
			continue
		}
		summary.LikeCount++
		if key.userID == viewerID {
			summary.IsLike = true
		}
	}
	return summary
}

// Counts reports the number of users, oauth users, info sets, boards and likes.
func (s *Store) Counts() (users, oauthUsers, infoSets, boards, likes int) {
	defer s.lock()()
	return len(s.data.users), len(s.data.oauthUsers), len(s.data.infoSets), len(s.data.boards), len(s.data.likes)
}

var _ store.Store = (*Store)(nil)

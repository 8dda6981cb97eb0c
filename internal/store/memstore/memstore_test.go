package memstore

import (
	"errors"
	"testing"

	"github.com/inhahackathon/foodmarket/internal/store"
	"github.com/inhahackathon/foodmarket/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, s *Store, uid string) types.User {
	t.Helper()
	user, err := s.CreateUser(t.Context(), types.User{UID: uid, Name: uid, Role: types.RoleUser, Provider: types.OAuthProviderGoogle})
	require.NoError(t, err)
	return user
}

func TestCreateUserRejectsDuplicateUID(t *testing.T) {
	s := New()
	newUser(t, s, "uid-1")

	_, err := s.CreateUser(t.Context(), types.User{UID: "uid-1"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestLikesAndSummaries(t *testing.T) {
	s := New()
	writer := newUser(t, s, "writer")
	viewer := newUser(t, s, "viewer")
	board, err := s.CreateBoard(t.Context(), types.Board{UserID: writer.ID, ProductName: "bread"})
	require.NoError(t, err)

	created, err := s.CreateLike(t.Context(), viewer.ID, board.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.CreateLike(t.Context(), viewer.ID, board.ID)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.CreateLike(t.Context(), viewer.ID, board.ID+100)
	assert.ErrorIs(t, err, ErrForeignKey)

	summary, err := s.GetBoardSummary(t.Context(), board.ID, viewer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.LikeCount)
	assert.True(t, summary.IsLike)
	assert.Equal(t, "writer", summary.Writer.UID)

	require.NoError(t, s.DeleteBoard(t.Context(), board.ID))
	_, _, _, boards, likes := s.Counts()
	assert.Zero(t, boards)
	assert.Zero(t, likes)
}

func TestDeleteUserBlockedByBoards(t *testing.T) {
	s := New()
	writer := newUser(t, s, "writer")
	_, err := s.CreateBoard(t.Context(), types.Board{UserID: writer.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteUser(t.Context(), writer.ID), ErrForeignKey)

	deleted, err := s.DeleteBoardsByUser(t.Context(), writer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	assert.NoError(t, s.DeleteUser(t.Context(), writer.ID))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := New()
	boom := errors.New("boom")

	err := s.WithTx(t.Context(), func(tx store.Store) error {
		if _, err := tx.CreateUser(t.Context(), types.User{UID: "tx-user"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetUserByUID(t.Context(), "tx-user")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithTx(t.Context(), func(tx store.Store) error {
		_, err := tx.CreateUser(t.Context(), types.User{UID: "tx-user"})
		return err
	})
	require.NoError(t, err)
	_, err = s.GetUserByUID(t.Context(), "tx-user")
	assert.NoError(t, err)
}

func TestListBoardSummariesNewestFirst(t *testing.T) {
	s := New()
	writer := newUser(t, s, "writer")
	first, err := s.CreateBoard(t.Context(), types.Board{UserID: writer.ID, Location: "용현동"})
	require.NoError(t, err)
	_, err = s.CreateBoard(t.Context(), types.Board{UserID: writer.ID, Location: "학익동"})
	require.NoError(t, err)
	third, err := s.CreateBoard(t.Context(), types.Board{UserID: writer.ID, Location: "용현동"})
	require.NoError(t, err)

	boards, err := s.ListBoardSummaries(t.Context(), store.ListBoardsRequest{Location: "용현동"})
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, third.ID, boards[0].Board.ID)
	assert.Equal(t, first.ID, boards[1].Board.ID)
}

package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLikeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	writer := env.seedUser(t, "writer", "용현동")
	liker := env.seedUser(t, "liker", "용현동")
	board := env.seedBoard(t, writer, "apples")
	token := env.token(t, liker)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/like/%d", board.ID), token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, decodeEnvelope(t, rec).Success)

	// Liking twice is not an error.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/like/%d", board.ID), token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/like/list/%d", liker.ID), token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list, ok := decodeEnvelope(t, rec).Data["likesList"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	item := list[0].(map[string]any)
	require.EqualValues(t, board.ID, item["boardId"])
	require.EqualValues(t, 1, item["likeCount"])
	require.Equal(t, true, item["isLike"])

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/like/%d", board.ID), token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/like/list/%d", liker.ID), token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeEnvelope(t, rec).Data["likesList"])
}

func TestLikeListOfAnotherUserIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "owner", "")
	other := env.seedUser(t, "other", "")

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/like/list/%d", owner.ID), env.token(t, other), nil, "")
	requireErrorCode(t, rec, http.StatusForbidden, CodePermissionDenied)
}

func TestLikeMissingBoard(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user", "")

	rec := env.do(t, http.MethodGet, "/like/999", env.token(t, user), nil, "")
	requireErrorCode(t, rec, http.StatusNotFound, CodeNotFound)
}

func TestLikeRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user", "")

	rec := env.do(t, http.MethodGet, "/like/abc", env.token(t, user), nil, "")
	requireErrorCode(t, rec, http.StatusBadRequest, CodeInvalidRequest)

	rec = env.do(t, http.MethodGet, "/like/1", "", nil, "")
	requireErrorCode(t, rec, http.StatusUnauthorized, CodeUnauthorized)

	rec = env.do(t, http.MethodGet, "/like/1", "not-a-jwt", nil, "")
	requireErrorCode(t, rec, http.StatusUnauthorized, CodeUnauthorized)
}

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestResourceHandlerServesStoredFiles(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.storage.Put(context.Background(), "/board/7/pic.png", strings.NewReader("image"), 5, "image/png"))

	rec := env.do(t, http.MethodGet, "/resources/board/7/pic.png", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "image", rec.Body.String())

	rec = env.do(t, http.MethodHead, "/resources/board/7/pic.png", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/resources/board/7/missing.png", "", nil, "")
	requireErrorCode(t, rec, http.StatusNotFound, CodeNotFound)

	rec = env.do(t, http.MethodGet, "/resources/board/7", "", nil, "")
	requireErrorCode(t, rec, http.StatusNotFound, CodeNotFound)
}

func TestResourceHandlerRejects(t *testing.T) {
	env := newTestEnv(t)
	logger, _ := test.NewNullLogger()
	h := NewResourceHandler(env.storage, testResourcePrefix, logger)

	req := httptest.NewRequest(http.MethodGet, "/resources/x", nil)
	req.URL.Path = "/resources/../../etc/passwd"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireErrorCode(t, rec, http.StatusNotFound, CodeNotFound)

	rec = env.do(t, http.MethodPost, "/resources/board/7/pic.png", "", strings.NewReader("x"), "image/png")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

type failingGetter struct{}

func (failingGetter) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	return nil, errors.New("backend down")
}

func TestResourceHandlerBackendFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := NewResourceHandler(failingGetter{}, testResourcePrefix, logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resources/profile/a.png", nil))
	requireErrorCode(t, rec, http.StatusInternalServerError, CodeInternal)
	require.NotNil(t, hook.LastEntry())
	require.Equal(t, "request failed", hook.LastEntry().Message)
}

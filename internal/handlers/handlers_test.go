package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inhahackathon/foodmarket/internal/auth"
	"github.com/inhahackathon/foodmarket/internal/identity"
	"github.com/inhahackathon/foodmarket/internal/services"
	"github.com/inhahackathon/foodmarket/internal/storage"
	"github.com/inhahackathon/foodmarket/internal/store/memstore"
	"github.com/inhahackathon/foodmarket/internal/upload"
	"github.com/inhahackathon/foodmarket/types"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const testResourcePrefix = "/resources"

type fakeIdentity struct {
	users  map[string]types.ProviderUser
	tokens map[string]string
}

func (f *fakeIdentity) GetUser(ctx context.Context, uid string) (types.ProviderUser, error) {
	user, ok := f.users[uid]
	if !ok {
		return types.ProviderUser{}, identity.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeIdentity) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	uid, ok := f.tokens[idToken]
	if !ok {
		return "", identity.ErrInvalidToken
	}
	return uid, nil
}

type fakeGeocoder struct {
	address string
	err     error
}

func (f *fakeGeocoder) Address(ctx context.Context, latitude, longitude float64) (string, error) {
	return f.address, f.err
}

type testEnv struct {
	router   *chi.Mux
	store    *memstore.Store
	storage  *storage.Storage
	tokens   *auth.TokenProvider
	identity *fakeIdentity
	geocoder *fakeGeocoder
	logHook  *test.Hook
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	backend, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	files := storage.New(backend)

	tokens, err := auth.NewTokenProvider("handler-test-secret")
	require.NoError(t, err)

	env := &testEnv{
		store:    memstore.New(),
		storage:  files,
		tokens:   tokens,
		identity: &fakeIdentity{users: map[string]types.ProviderUser{}, tokens: map[string]string{}},
		geocoder: &fakeGeocoder{},
		logHook:  hook,
	}

	fileHandler := upload.NewFileHandler(files, []string{"jpg", "png"})
	events := services.NewInlinePublisher(services.NewImageCleanup(files, logger))
	userService := services.NewUserService(env.store, env.identity, tokens, env.geocoder, fileHandler,
		services.WithEvents(events),
		services.WithLogger(logger),
	)
	boardService := services.NewBoardService(env.store, fileHandler, events, logger)
	likeService := services.NewLikeService(env.store)
	authMiddleware := auth.RequireAuth(tokens, Unauthorized)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	DocsRouter(router, DocsConfig{Version: "v-test"})
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, NewAuthHandler(env.identity, userService, logger), authMiddleware)
	})
	router.Route("/user", func(r chi.Router) {
		UserRouter(r, NewUserHandler(userService, logger), authMiddleware)
	})
	router.Route("/board", func(r chi.Router) {
		BoardRouter(r, NewBoardHandler(boardService, logger), authMiddleware)
	})
	router.Route("/like", func(r chi.Router) {
		LikeRouter(r, NewLikeHandler(likeService, logger), authMiddleware)
	})
	router.Handle(testResourcePrefix+"/*", NewResourceHandler(files, testResourcePrefix, logger))
	env.router = router
	return env
}

func (e *testEnv) seedUser(t *testing.T, uid, location string) types.User {
	t.Helper()
	user, err := e.store.CreateUser(context.Background(), types.User{
		UID:      uid,
		Name:     uid + "-name",
		Location: location,
		Role:     types.RoleUser,
		Provider: types.OAuthProviderGoogle,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) seedBoard(t *testing.T, writer types.User, productName string) types.Board {
	t.Helper()
	board, err := e.store.CreateBoard(context.Background(), types.Board{
		UserID:      writer.ID,
		ProductName: productName,
		Price:       1000,
		Location:    writer.Location,
	})
	require.NoError(t, err)
	return board
}

func (e *testEnv) token(t *testing.T, user types.User) string {
	t.Helper()
	token, err := e.tokens.CreateToken(auth.NewPrincipal(user), time.Now().Add(time.Hour))
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, target, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, method, target, token, bytes.NewReader(body), "application/json")
}

type formFileField struct {
	field    string
	filename string
	content  []byte
}

func newMultipartForm(t *testing.T, fields map[string]string, files ...formFileField) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type envelope struct {
	Status  int            `json:"status"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Error   *ErrorBody     `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Equal(t, rec.Code, env.Status)
	return env
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code)
}

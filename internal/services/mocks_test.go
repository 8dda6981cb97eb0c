package services

import (
	"context"
	"sync"

	"github.com/inhahackathon/foodmarket/internal/identity"
	"github.com/inhahackathon/foodmarket/internal/upload"
	"github.com/inhahackathon/foodmarket/types"
)

type mockIdentity struct {
	users map[string]types.ProviderUser
	err   error
}

func (m *mockIdentity) GetUser(ctx context.Context, uid string) (types.ProviderUser, error) {
	if m.err != nil {
		return types.ProviderUser{}, m.err
	}
	user, ok := m.users[uid]
	if !ok {
		return types.ProviderUser{}, identity.ErrUserNotFound
	}
	return user, nil
}

type mockGeocoder struct {
	address string
	err     error
}

func (m *mockGeocoder) Address(ctx context.Context, latitude, longitude float64) (string, error) {
	return m.address, m.err
}

type mockFiles struct {
	saveFile func(ctx context.Context, boardID *int64, file upload.File) (string, error)
}

func (m *mockFiles) SaveFile(ctx context.Context, boardID *int64, file upload.File) (string, error) {
	return m.saveFile(ctx, boardID, file)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []types.BoardsDeletedEvent
	err    error
}

func (r *recordingEvents) PublishBoardsDeleted(ctx context.Context, event types.BoardsDeletedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

type recordingDeleter struct {
	deleted []string
	err     error
}

func (r *recordingDeleter) DeletePrefix(ctx context.Context, p string) error {
	r.deleted = append(r.deleted, p)
	return r.err
}

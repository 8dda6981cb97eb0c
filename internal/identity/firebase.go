// Package identity looks up users at the external identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/inhahackathon/foodmarket/config"
	"github.com/inhahackathon/foodmarket/types"
	"google.golang.org/api/option"
)

var (
	ErrUserNotFound = errors.New("identity provider user not found")
	ErrInvalidToken = errors.New("invalid id token")
)

// Provider resolves provider uids and verifies client ID tokens.
type Provider interface {
	GetUser(ctx context.Context, uid string) (types.ProviderUser, error)
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
}

// FirebaseProvider implements Provider with Firebase Authentication.
type FirebaseProvider struct {
	client *auth.Client
}

func NewFirebaseProvider(ctx context.Context, cfg config.FirebaseConfig) (*FirebaseProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) GetUser(ctx context.Context, uid string) (types.ProviderUser, error) {
	record, err := p.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return types.ProviderUser{}, ErrUserNotFound
		}
		return types.ProviderUser{}, fmt.Errorf("get firebase user %s: %w", uid, err)
	}
	if record.UserInfo == nil {
		return types.ProviderUser{}, ErrUserNotFound
	}

	return types.ProviderUser{
		UID:        record.UID,
		ProviderID: record.ProviderID,
		Email:      record.Email,
		Name:       record.DisplayName,
		PhotoURL:   record.PhotoURL,
	}, nil
}

// VerifyIDToken checks a client ID token and returns the uid it was issued for.
func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	return token.UID, nil
}

var _ Provider = (*FirebaseProvider)(nil)

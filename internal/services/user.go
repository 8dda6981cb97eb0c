package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inhahackathon/foodmarket/internal/apperr"
	"github.com/inhahackathon/foodmarket/internal/auth"
	"github.com/inhahackathon/foodmarket/internal/geo"
	"github.com/inhahackathon/foodmarket/internal/identity"
	"github.com/inhahackathon/foodmarket/internal/store"
	"github.com/inhahackathon/foodmarket/internal/upload"
	"github.com/inhahackathon/foodmarket/types"
	"github.com/sirupsen/logrus"
)

// IdentityProvider looks up users at the external identity provider.
type IdentityProvider interface {
	GetUser(ctx context.Context, uid string) (types.ProviderUser, error)
}

// TokenIssuer signs session tokens. Implemented by auth.TokenProvider.
type TokenIssuer interface {
	CreateToken(principal auth.Principal, expiry time.Time) (string, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	store    store.Store
	identity IdentityProvider
	tokens   TokenIssuer
	geocoder geo.Geocoder
	files    FileSaver
	events   EventPublisher
	logger   logrus.FieldLogger
	tokenTTL time.Duration
	now      func() time.Time
}

// UserOption customizes a UserService.
type UserOption func(*UserService)

func WithTokenTTL(ttl time.Duration) UserOption {
	return func(s *UserService) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func WithEvents(events EventPublisher) UserOption {
	return func(s *UserService) { s.events = events }
}

func WithLogger(logger logrus.FieldLogger) UserOption {
	return func(s *UserService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) UserOption {
	return func(s *UserService) { s.now = now }
}

func NewUserService(
	st store.Store,
	idp IdentityProvider,
	tokens TokenIssuer,
	geocoder geo.Geocoder,
	files FileSaver,
	opts ...UserOption,
) *UserService {
	s := &UserService{
		store:    st,
		identity: idp,
		tokens:   tokens,
		geocoder: geocoder,
		files:    files,
		logger:   logrus.StandardLogger(),
		tokenTTL: auth.DefaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveUserFromFirebase returns the local user for a provider uid, creating the
// user, its OAuth shadow and its settings in one transaction on first login.
func (s *UserService) SaveUserFromFirebase(ctx context.Context, uid string) (types.User, error) {
	profile, err := s.identity.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return types.User{}, apperr.Wrap(apperr.ErrNotFound, err, "could not find user in firebase")
		}
		return types.User{}, fmt.Errorf("identity lookup: %w", err)
	}

	existing, err := s.store.GetUserByUID(ctx, uid)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("get user by uid: %w", err)
	}

	var created types.User
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		user, err := tx.CreateUser(ctx, types.User{
			UID:           uid,
			Name:          profile.Name,
			ProfileImgURL: profile.PhotoURL,
			Role:          types.RoleUser,
			Provider:      types.OAuthProviderGoogle,
		})
		if err != nil {
			return err
		}
		if err := tx.CreateUserInfoSet(ctx, types.NewUserInfoSet(user.ID)); err != nil {
			return fmt.Errorf("create user info set: %w", err)
		}
		if _, err := tx.CreateOAuthUser(ctx, types.OAuthUser{
			UserID:         user.ID,
			ProviderUserID: profile.ProviderID,
			Email:          profile.Email,
			Name:           profile.Name,
			Picture:        profile.PhotoURL,
			Provider:       types.OAuthProviderGoogle,
		}); err != nil {
			return fmt.Errorf("create oauth user: %w", err)
		}
		created = user
		return nil
	})
	if errors.Is(err, store.ErrConflict) {
		// A concurrent first login won the race.
		return s.store.GetUserByUID(ctx, uid)
	}
	if err != nil {
		return types.User{}, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": created.ID, "uid": uid}).Info("registered user")
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (types.UserDTO, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return types.UserDTO{}, userLookupErr(err)
	}
	return user.ToDTO(), nil
}

// UpdateUser overwrites the name, and the location and profile image when
// they are non-empty after trimming.
func (s *UserService) UpdateUser(ctx context.Context, dto types.UserDTO) (types.UserDTO, error) {
	user, err := s.store.GetUserByID(ctx, dto.UserID)
	if err != nil {
		return types.UserDTO{}, userLookupErr(err)
	}

	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return types.UserDTO{}, apperr.New(apperr.ErrNotAllowedValue, "name must not be empty")
	}
	user.Name = name
	if location := strings.TrimSpace(dto.Location); location != "" {
		user.Location = location
	}
	if img := strings.TrimSpace(dto.ProfileImgURL); img != "" {
		user.ProfileImgURL = img
	}

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return types.UserDTO{}, userLookupErr(err)
	}
	return updated.ToDTO(), nil
}

// DeleteUser removes the user's boards and then the user in one transaction.
func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	var boardIDs []int64
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.GetUserByID(ctx, userID); err != nil {
			return userLookupErr(err)
		}
		ids, err := deleteUserBoards(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := tx.DeleteUser(ctx, userID); err != nil {
			return userLookupErr(err)
		}
		boardIDs = ids
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "boards": len(boardIDs)}).Info("deleted user")
	publish(ctx, s.events, s.logger, types.BoardsDeletedEvent{UserID: userID, BoardIDs: boardIDs})
	return nil
}

// GetUserToken issues a session token valid for the configured TTL.
func (s *UserService) GetUserToken(user types.User) (types.AuthToken, error) {
	expiry := s.now().Add(s.tokenTTL)
	token, err := s.tokens.CreateToken(auth.NewPrincipal(user), expiry)
	if err != nil {
		return types.AuthToken{}, fmt.Errorf("create token: %w", err)
	}
	return types.AuthToken{Token: token, ExpiresAt: expiry}, nil
}

// UpdateUserLocation resolves the coordinates and stores the neighbourhood
// part of the address. Without a neighbourhood the location is left unchanged.
func (s *UserService) UpdateUserLocation(ctx context.Context, userID int64, latitude, longitude float64) (string, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", userLookupErr(err)
	}

	address, err := s.geocoder.Address(ctx, latitude, longitude)
	if err != nil {
		if errors.Is(err, geo.ErrAddressNotFound) {
			return "", apperr.Wrap(apperr.ErrSearchResultNotExist, err, "no address for the given coordinates")
		}
		return "", fmt.Errorf("geocode: %w", err)
	}

	district, ok := geo.District(address)
	if !ok {
		return "", apperr.New(apperr.ErrSearchResultNotExist, "no neighbourhood in address %q", address)
	}

	user.Location = district
	if _, err := s.store.UpdateUser(ctx, user); err != nil {
		return "", userLookupErr(err)
	}
	return district, nil
}

// UpdateProfileImage stores file below /profile and points the user at it.
func (s *UserService) UpdateProfileImage(ctx context.Context, userID int64, file upload.File) (string, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", userLookupErr(err)
	}

	p, err := s.files.SaveFile(ctx, nil, file)
	if err != nil {
		return "", err
	}

	user.ProfileImgURL = p
	if _, err := s.store.UpdateUser(ctx, user); err != nil {
		return "", userLookupErr(err)
	}
	return p, nil
}

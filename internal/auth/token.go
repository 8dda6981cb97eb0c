package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/inhahackathon/foodmarket/types"
)

// DefaultTokenTTL is the validity window of a session token.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is required")
)

// Principal is the view of a user embedded in a session token.
type Principal struct {
	UserID int64
	UID    string
	Name   string
	Role   types.Role
}

// NewPrincipal builds the token view of user.
func NewPrincipal(user types.User) Principal {
	return Principal{
		UserID: user.ID,
		UID:    user.UID,
		Name:   user.Name,
		Role:   user.Role,
	}
}

type claims struct {
	UID  string     `json:"uid,omitempty"`
	Name string     `json:"name,omitempty"`
	Role types.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenProvider signs and verifies HS256 session tokens.
type TokenProvider struct {
	secret []byte
	now    func() time.Time
}

func NewTokenProvider(secret string) (*TokenProvider, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenProvider{secret: []byte(secret), now: time.Now}, nil
}

// CreateToken signs a token for principal that expires at expiry.
func (p *TokenProvider) CreateToken(principal Principal, expiry time.Time) (string, error) {
	c := claims{
		UID:  principal.UID,
		Name: principal.Name,
		Role: principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principal.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(p.now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(p.secret)
}

// ParseToken verifies tokenString and returns the principal it carries.
func (p *TokenProvider) ParseToken(tokenString string) (Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return Principal{}, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(c.Subject), 10, 64)
	if err != nil || userID < 1 {
		return Principal{}, ErrInvalidToken
	}

	return Principal{
		UserID: userID,
		UID:    c.UID,
		Name:   c.Name,
		Role:   c.Role,
	}, nil
}

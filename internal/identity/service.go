package identity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is what the auth layer needs from persistence; Repo satisfies
// it, handler tests use a fake.
type UserStore interface {
	Create(ctx context.Context, in RegisterInput, hashed string) (User, error)
	ByEmail(ctx context.Context, email string) (User, error)
	ByID(ctx context.Context, id int64) (User, error)
}

type Service struct {
	Store  UserStore
	Secret []byte
	Expiry time.Duration
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Token, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Token{}, err
	}
	u, err := s.Store.Create(ctx, in, string(hashed))
	if err != nil {
		return Token{}, err
	}
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (Token, error) {
	u, err := s.Store.ByEmail(ctx, in.Email)
	if err != nil {
		if err == ErrNotFound {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(in.Password)) != nil {
		return Token{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return Token{}, ErrInactiveAccount
	}
	return s.issue(u)
}

func (s *Service) issue(u User) (Token, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(u.ID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.Expiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, TokenType: "bearer", User: u}, nil
}

// Verify parses a bearer token and loads the user behind it.
func (s *Service) Verify(ctx context.Context, tokenStr string) (User, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.Secret, nil
		})
	if err != nil || !tok.Valid {
		return User{}, fmt.Errorf("invalid token")
	}
	claims := tok.Claims.(*jwt.RegisteredClaims)
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return User{}, fmt.Errorf("invalid token subject")
	}
	u, err := s.Store.ByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("invalid token")
	}
	if !u.IsActive {
		return User{}, ErrInactiveAccount
	}
	return u, nil
}

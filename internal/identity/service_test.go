package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users  map[int64]User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]User), nextID: 1}
}

func (s *fakeUserStore) Create(ctx context.Context, in RegisterInput, hashed string) (User, error) {
	for _, u := range s.users {
		if u.Email == in.Email || u.Username == in.Username {
			return User{}, ErrAlreadyRegistered
		}
	}
	u := User{
		ID:             s.nextID,
		Email:          in.Email,
		Username:       in.Username,
		HashedPassword: hashed,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	s.users[u.ID] = u
	s.nextID++
	return u, nil
}

func (s *fakeUserStore) ByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *fakeUserStore) ByID(ctx context.Context, id int64) (User, error) {
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func newTestService() (*Service, *fakeUserStore) {
	store := newFakeUserStore()
	return &Service{Store: store, Secret: []byte("test-secret"), Expiry: time.Hour}, store
}

func TestRegisterLoginVerifyRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tok, err := svc.Register(ctx, RegisterInput{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "ada@example.com", tok.User.Email)

	tok, err = svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "hunter22"})
	require.NoError(t, err)

	u, err := svc.Verify(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Username: "ada", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "ada@example.com", Username: "ada2", Password: "pw"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Username: "ada", Password: "right"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email must look like a bad password")
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	tok, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Username: "ada", Password: "pw"})
	require.NoError(t, err)

	u := store.users[tok.User.ID]
	u.IsActive = false
	store.users[u.ID] = u

	_, err = svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrInactiveAccount)

	_, err = svc.Verify(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Verify(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	tok, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Username: "ada", Password: "pw"})
	require.NoError(t, err)

	other := &Service{Store: store, Secret: []byte("different-secret"), Expiry: time.Hour}
	_, err = other.Verify(ctx, tok.AccessToken)
	assert.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Expiry = -time.Minute
	tok, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Username: "ada", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, tok.AccessToken)
	assert.Error(t, err)
}

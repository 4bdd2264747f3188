package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/service"
	"github.com/student-forum-api/internal/validation"
)

func registerRequest(email string) *models.RegisterRequest {
	return &models.RegisterRequest{
		FirstName:       "Lesya",
		LastName:        "Ukrainka",
		Email:           email,
		Password:        "forest-song",
		PasswordConfirm: "forest-song",
	}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.services.Auth.Register(ctx, registerRequest("lesya@lnu.edu.ua"))
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "forest-song", user.PasswordHash)

	session, err := f.services.Auth.Login(ctx, &models.LoginRequest{Email: "LESYA@lnu.edu.ua", Password: "forest-song"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.ID)
	assert.Len(t, session.Access, 64)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	me, err := f.services.Auth.Authenticate(ctx, session.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.services.Auth.Register(context.Background(), registerRequest("lesya@gmail.com"))
	require.Error(t, err)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "email", verrs[0].Field)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.services.Auth.Register(ctx, registerRequest("dup@kpi.ua"))
	require.NoError(t, err)

	_, err = f.services.Auth.Register(ctx, registerRequest("DUP@kpi.ua"))
	assert.ErrorIs(t, err, service.ErrEmailTaken)
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.services.Auth.Register(ctx, registerRequest("who@kpi.ua"))
	require.NoError(t, err)

	_, err = f.services.Auth.Login(ctx, &models.LoginRequest{Email: "who@kpi.ua", Password: "wrong-password"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.services.Auth.Login(ctx, &models.LoginRequest{Email: "nobody@kpi.ua", Password: "forest-song"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthService_LogoutRevokesCachedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.services.Auth.Register(ctx, registerRequest("bye@kpi.ua"))
	require.NoError(t, err)
	session, err := f.services.Auth.Login(ctx, &models.LoginRequest{Email: "bye@kpi.ua", Password: "forest-song"})
	require.NoError(t, err)

	// Warm the cache
	_, err = f.services.Auth.Authenticate(ctx, session.Access)
	require.NoError(t, err)

	require.NoError(t, f.services.Auth.Logout(ctx, session.Access))

	_, err = f.services.Auth.Authenticate(ctx, session.Access)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Empty(t, f.store.Tokens.Tokens)
}

func TestAuthService_AuthenticateRejectsUnknownAndExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.services.Auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.services.Auth.Authenticate(ctx, "deadbeef")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	require.NoError(t, f.store.Tokens.Create(ctx, &models.AuthToken{
		Token:     "expired",
		UserID:    f.author,
		ExpiresAt: time.Now().Add(-time.Second),
	}))
	_, err = f.services.Auth.Authenticate(ctx, "expired")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestTokenSweeper_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Tokens.Create(ctx, &models.AuthToken{Token: "old", UserID: f.author, ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, f.store.Tokens.Create(ctx, &models.AuthToken{Token: "new", UserID: f.author, ExpiresAt: time.Now().Add(time.Hour)}))

	assert.Equal(t, int64(1), f.services.Sweeper.Sweep(ctx))
	assert.Contains(t, f.store.Tokens.Tokens, "new")
	assert.NotContains(t, f.store.Tokens.Tokens, "old")
}

func TestTokenSweeper_StartStop(t *testing.T) {
	f := newFixture(t)

	done := make(chan struct{})
	go func() {
		f.services.Sweeper.Start(context.Background())
		close(done)
	}()

	// Stop may race with Start; keep stopping until the loop exits
	deadline := time.After(2 * time.Second)
	for {
		f.services.Sweeper.Stop()
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatal("sweeper did not stop")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

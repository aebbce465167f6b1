package identity

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamangus/newish/internal/adapters/memory"
	"github.com/iamangus/newish/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestService() *Service {
	return New(memory.NewUserRepo(), testSecret, testLogger())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alice", "Alice@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", user.Email, "email should be stored lowercased")
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)

	// Login works with the original casing too.
	loggedIn, token2, err := svc.Login(ctx, "ALICE@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token2)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name, email, password string
	}{
		{"Alice", "not-an-email", "hunter2hunter2"},
		{"Alice", "alice@example.com", "short"},
		{"A", "alice@example.com", "hunter2hunter2"},
		{"  ", "alice@example.com", "hunter2hunter2"},
	}
	for _, tc := range cases {
		_, _, err := svc.Register(ctx, tc.name, tc.email, tc.password)
		assert.ErrorIs(t, err, domain.ErrValidation, "name=%q email=%q", tc.name, tc.email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Other Alice", "alice@example.com", "different-pass")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLoginFailures(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Unknown email yields the same error as a wrong password.
	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyToken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestVerifyRejectsTampering(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, token, err := svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Verify(token + "x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// A token signed with a different secret must not verify.
	other := New(memory.NewUserRepo(), "another-secret-another-secret-xx", testLogger())
	foreign, err := other.IssueToken(&domain.User{ID: 1, Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = svc.Verify(foreign)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := newTestService()
	// Issue a token that expired well past the verification leeway.
	svc.tokenTTL = -time.Hour

	token, err := svc.IssueToken(&domain.User{ID: 7, Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.GetUser(ctx, &Claims{UserID: 9999})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

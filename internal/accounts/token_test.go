package accounts_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/taskflow/internal/accounts"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewJWTIssuerRejectsWeakConfig(t *testing.T) {
	_, err := accounts.NewJWTIssuer("short", "taskflow", time.Hour)
	assert.Error(t, err)

	_, err = accounts.NewJWTIssuer(testSecret, "taskflow", 0)
	assert.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	issuer, err := accounts.NewJWTIssuer(testSecret, "taskflow", time.Hour)
	require.NoError(t, err)
	user := accounts.Register("ada@example.com", "hash", accounts.FullName{First: "Ada", Last: "Lovelace"}, time.Now())

	token, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	claims, err := issuer.Validate(token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestValidateRejectsBadTokens(t *testing.T) {
	issuer, err := accounts.NewJWTIssuer(testSecret, "taskflow", time.Hour)
	require.NoError(t, err)
	user := accounts.Register("ada@example.com", "hash", accounts.FullName{First: "Ada", Last: "Lovelace"}, time.Now())
	token, err := issuer.Issue(user)
	require.NoError(t, err)

	other, err := accounts.NewJWTIssuer(strings.Repeat("z", 32), "taskflow", time.Hour)
	require.NoError(t, err)
	_, err = other.Validate(token.Value)
	assert.ErrorIs(t, err, accounts.ErrInvalidToken)

	_, err = issuer.Validate("not-a-jwt")
	assert.ErrorIs(t, err, accounts.ErrInvalidToken)

	later := time.Now().Add(3 * time.Hour)
	issuer.WithClock(func() time.Time { return later })
	_, err = issuer.Validate(token.Value)
	assert.ErrorIs(t, err, accounts.ErrInvalidToken)
}

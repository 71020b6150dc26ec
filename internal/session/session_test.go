package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type clearer struct {
	calls int
	err   error
}

func (c *clearer) ClearDocument() error {
	c.calls++
	return c.err
}

func TestSignInAndOut(t *testing.T) {
	doc := &clearer{}
	s := New(NewLocalProvider("Ada Lovelace", "ada@example.com"), doc, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.False(t, s.SignedIn())
	assert.Nil(t, s.User())

	u, err := s.SignIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.True(t, s.SignedIn())

	require.NoError(t, s.SignOut(ctx))
	assert.False(t, s.SignedIn())
	assert.Equal(t, 1, doc.calls)
}

func TestSignOutReportsClearFailure(t *testing.T) {
	doc := &clearer{err: errors.New("not ready")}
	s := New(NewLocalProvider("Ada", "ada@example.com"), doc, zaptest.NewLogger(t))
	assert.Error(t, s.SignOut(context.Background()))
}

func TestCurrentUserIsACopy(t *testing.T) {
	p := NewLocalProvider("Ada", "ada@example.com")
	require.NoError(t, p.SignIn(context.Background()))
	p.CurrentUser().DisplayName = "changed"
	assert.Equal(t, "Ada", p.CurrentUser().DisplayName)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AL", User{DisplayName: "ada lovelace byron"}.Initials())
	assert.Equal(t, "Z", User{DisplayName: "Zoë"}.Initials())
	assert.Equal(t, "", User{}.Initials())
}

package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/surveyguy/internal/models"
)

const testSecret = "0123456789abcdef0123"

func TestSessionRoundTrip(t *testing.T) {
	s, err := NewSessionSigner(testSecret, time.Hour)
	require.NoError(t, err)
	started := time.Now().UTC().Truncate(time.Second)

	tok, exp, err := s.Issue(models.Session{ID: "session_1", SurveyID: "s1", StartedAt: started})
	require.NoError(t, err)
	assert.Equal(t, started.Add(time.Hour), exp)

	got, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "session_1", got.ID)
	assert.Equal(t, "s1", got.SurveyID)
	assert.True(t, started.Equal(got.StartedAt))
}

func TestSessionExpired(t *testing.T) {
	s, err := NewSessionSigner(testSecret, time.Minute)
	require.NoError(t, err)
	tok, _, err := s.Issue(models.Session{ID: "a", SurveyID: "s1", StartedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.Error(t, err)
}

func TestSessionWrongSecret(t *testing.T) {
	a, _ := NewSessionSigner(testSecret, time.Hour)
	b, _ := NewSessionSigner("another-secret-value", time.Hour)
	tok, _, err := a.Issue(models.Session{ID: "a", SurveyID: "s1"})
	require.NoError(t, err)
	_, err = b.Parse(tok)
	assert.Error(t, err)

	_, err = a.Parse("not-a-token")
	assert.Error(t, err)
}

func TestNewSessionSignerRejectsWeakConfig(t *testing.T) {
	_, err := NewSessionSigner("short", time.Hour)
	assert.Error(t, err)
	_, err = NewSessionSigner(testSecret, 0)
	assert.Error(t, err)
}

package middleware

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/soaringjerry/surveyguy/internal/models"
)

const sessionIssuer = "surveyguy"

// SessionClaims is the payload of a respondent session token.
type SessionClaims struct {
	SurveyID  string `json:"sid"`
	StartedAt int64  `json:"st"`
	jwt.RegisteredClaims
}

// SessionSigner issues and verifies HS256 respondent session tokens.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionSigner(secret string, ttl time.Duration) (*SessionSigner, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &SessionSigner{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs sess; the token expires ttl after the session started.
func (s *SessionSigner) Issue(sess models.Session) (string, time.Time, error) {
	started := sess.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	exp := started.Add(s.ttl)
	claims := SessionClaims{
		SurveyID:  sess.SurveyID,
		StartedAt: started.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   sess.ID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, exp, nil
}

// Parse verifies tok and returns the session it carries.
func (s *SessionSigner) Parse(tok string) (models.Session, error) {
	t, err := jwt.ParseWithClaims(tok, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return models.Session{}, err
	}
	c, ok := t.Claims.(*SessionClaims)
	if !ok || !t.Valid || c.Subject == "" || c.SurveyID == "" {
		return models.Session{}, errors.New("invalid session token")
	}
	return models.Session{ID: c.Subject, SurveyID: c.SurveyID, StartedAt: time.Unix(c.StartedAt, 0).UTC()}, nil
}

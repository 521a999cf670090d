package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quickchat/server/internal/common/clock"
	commonerrors "github.com/quickchat/server/internal/common/errors"
	"github.com/quickchat/server/internal/observability/metrics"
	userdomain "github.com/quickchat/server/internal/user/domain"
)

// TokenIssuer signs access tokens carrying the user's id and email.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clk    clock.Clock
}

func NewTokenIssuer(secret string, ttl time.Duration, clk clock.Clock) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, clk: clk}
}

func (t *TokenIssuer) Issue(user userdomain.User) (string, error) {
	now := t.clk.Now()
	claims := jwt.MapClaims{
		"sub": string(user.ID),
		"eml": user.Email,
		"iat": now.Unix(),
		"exp": now.Add(t.ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", commonerrors.ErrInternalError.WithCause(err)
	}
	metrics.AccessTokensIssued.Inc()
	return signed, nil
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"taskhub/internal/model"
)

// HeaderToken is the request header that carries the bearer token.
const HeaderToken = "x-auth"

// ErrTokenInvalid is returned for any token that fails verification: bad
// signature, malformed payload, or wrong purpose. Callers get no more detail
// than that.
var ErrTokenInvalid = errors.New("invalid token")

// Claims is the signed payload of a bearer token. Tokens carry no expiry;
// their lifetime is bounded by membership in the user's token set, which the
// gate checks on every request. The JTI makes two tokens issued for the same
// user distinct strings, so they can be revoked independently.
type Claims struct {
	UserID  uuid.UUID `json:"user_id"`
	Purpose string    `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies bearer tokens with the process-wide
// signing secret. The secret is loaded once at startup and never rotated at
// runtime; rotating it invalidates every outstanding token.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a token service with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue signs a new bearer token for the user. Issuing twice for the same
// user yields two distinct tokens.
func (s *TokenService) Issue(userID uuid.UUID) (string, error) {
	claims := &Claims{
		UserID:  userID,
		Purpose: model.TokenPurposeAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature and payload shape of a token and returns its
// claims. It does not consult the token store; whether the token is still a
// member of the user's valid set is the gate's concern, layered on top.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != model.TokenPurposeAuth || claims.UserID == uuid.Nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

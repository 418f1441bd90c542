package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/loanportal/portal-client/internal/core/domain"
)

// plainMarker is written when no marker secret is configured. Basic auth is
// per request, so the marker only records that a session once existed.
const plainMarker = "basic"

// MarkerSigner mints and checks the persisted session marker. With a secret
// the marker is an HS256 token bound to the identity id, so a hand-edited
// record is not restored.
type MarkerSigner struct {
	secret []byte
	now    func() time.Time
}

func NewMarkerSigner(secret string) *MarkerSigner {
	return &MarkerSigner{secret: []byte(secret), now: time.Now}
}

func (m *MarkerSigner) Mint(id domain.Identity) (string, error) {
	if len(m.secret) == 0 {
		return plainMarker, nil
	}
	claims := jwt.MapClaims{
		"sub":  id.ID,
		"role": id.Role,
		"iat":  m.now().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Valid reports whether marker was minted for id.
func (m *MarkerSigner) Valid(marker string, id domain.Identity) bool {
	if marker == "" {
		return false
	}
	if len(m.secret) == 0 {
		return true
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(marker, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return false
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	return sub == id.ID && role == id.Role
}

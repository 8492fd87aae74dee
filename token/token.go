package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"github.com/soffa-projects/go-webstack/util/dates"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed tokens and missing claims.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned once the current time reaches the expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the session payload carried by the auth cookie.
type Claims struct {
	UserId      string   `json:"userId"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a process-wide symmetric secret.
// Rotating the secret invalidates every outstanding token.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Sign(userId string, email string, role string, permissions []string) (string, error) {
	now := dates.Now()
	claims := Claims{
		UserId:      userId,
		Email:       email,
		Role:        role,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		log.Errorf("error signing token: %v", err)
	}
	return signed, err
}

// Verify checks the signature and expiry and returns the claims.
// A token whose expiry equals the current instant is already expired.
func (c *Codec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil || !dates.Now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	if claims.UserId == "" || claims.Email == "" || claims.Role == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

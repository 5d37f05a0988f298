package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onetwoclick/rinkshots-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

var (
	errSecretRequired = errors.New("identity jwt secret is required")
	errMissingEmail   = errors.New("access token carries no email")
)

// Claims are the fields read from the auth provider's access tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 access tokens issued by the auth provider.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewVerifier(cfg config.IdentityConfig) (*Verifier, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errSecretRequired
	}
	return &Verifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   strings.TrimSpace(cfg.JWTIssuer),
		audience: strings.TrimSpace(cfg.JWTAudience),
	}, nil
}

// Verify parses token and returns the signed-in identity.
func (v *Verifier) Verify(token string) (Identity, error) {
	if v == nil {
		return Identity{}, errSecretRequired
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwtSigningMethod.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwtSigningMethod {
			return nil, fmt.Errorf("unexpected signing method %s", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(claims.Email) == "" {
		return Identity{}, errMissingEmail
	}

	return Identity{UserID: claims.Subject, Email: strings.TrimSpace(claims.Email)}, nil
}

// MintToken signs an access token the way the auth provider does. Used by
// local tooling and tests.
func MintToken(cfg config.IdentityConfig, now time.Time, subject, email string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return "", errSecretRequired
	}
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if cfg.JWTAudience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.JWTAudience}
	}
	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

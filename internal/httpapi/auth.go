package httpapi

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/schedcheck/schedcheck/internal/config"
)

// TokenService issues and validates bearer tokens for the control plane.
// Trimmed from pkg/auth/jwt.go's JWTService: schedcheck has no user/role
// model, so Claims carries only a subject and the registered fields.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	audience   string
	expiry     time.Duration
}

// Claims is the JWT claim set issued by TokenService.
type Claims struct {
	jwt.RegisteredClaims
}

// NewTokenService generates an RSA key pair and returns a TokenService
// configured from cfg.
func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("httpapi: generate signing key: %w", err)
	}
	expiry := cfg.ExpiryTime
	if expiry == 0 {
		expiry = 24 * time.Hour
	}
	return &TokenService{
		privateKey: key,
		publicKey:  &key.PublicKey,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		expiry:     expiry,
	}, nil
}

// IssueToken mints a bearer token for subject (typically a client/API-key
// identifier, not an end user).
func (t *TokenService) IssueToken(subject string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.expiry)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{t.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(t.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("httpapi: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies tokenString, checking signature,
// expiry, and audience.
func (t *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("httpapi: parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("httpapi: invalid token claims")
	}
	validAudience := false
	for _, aud := range claims.Audience {
		if aud == t.audience {
			validAudience = true
			break
		}
	}
	if !validAudience {
		return nil, errors.New("httpapi: token audience mismatch")
	}
	return claims, nil
}

// authMiddleware rejects requests without a valid "Bearer <token>"
// Authorization header. Disabled entirely when auth.enabled is false, for
// local/dev use.
func (s *Server) authMiddleware() gin.HandlerFunc {
	if !s.cfg.Auth.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "missing bearer token"})
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := s.tokens.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: err.Error()})
			c.Abort()
			return
		}
		c.Set("subject", claims.Subject)
		c.Next()
	}
}

package blob

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the default signed URL lifetime.
const DefaultTTL = time.Hour

// URLSigner mints and checks expiring download tokens for blob references,
// so image URLs can be handed to clients without exposing the store itself.
type URLSigner struct {
	secret string
}

// NewURLSigner creates a signer using the given HMAC secret.
func NewURLSigner(secret string) *URLSigner {
	return &URLSigner{secret: secret}
}

// urlClaims are the JWT claims embedded in a signed URL token. The token is
// bound to one blob reference, so it cannot be replayed against another.
type urlClaims struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	jwt.RegisteredClaims
}

// Sign creates a download token for the reference, valid for ttl.
func (s *URLSigner) Sign(ref Ref, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = DefaultTTL
	}

	claims := urlClaims{
		Bucket: ref.Bucket,
		Path:   ref.Path,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("signing blob token: %w", err)
	}
	return signed, nil
}

// SignedURL returns a relative URL serving the referenced blob, with the
// download token in the query string.
func (s *URLSigner) SignedURL(ref Ref, ttl time.Duration) (string, error) {
	token, err := s.Sign(ref, ttl)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/blobs/%s/%s?token=%s",
		url.PathEscape(ref.Bucket), url.PathEscape(ref.Path), url.QueryEscape(token)), nil
}

// Verify checks that the token is valid, unexpired, and bound to the given
// reference.
func (s *URLSigner) Verify(tokenStr string, ref Ref) error {
	token, err := jwt.ParseWithClaims(tokenStr, &urlClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return fmt.Errorf("parsing blob token: %w", err)
	}

	claims, ok := token.Claims.(*urlClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid blob token")
	}
	if claims.Bucket != ref.Bucket || claims.Path != ref.Path {
		return fmt.Errorf("blob token does not match reference")
	}
	return nil
}

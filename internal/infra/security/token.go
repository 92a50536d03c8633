package security

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
)

// TokenCodec turns identity claims into a bearer-token string and back.
// Codecs never consult session state; liveness is the online registry's job.
type TokenCodec interface {
	Encode(claims domain.Claims) (string, error)
	Decode(token string) (domain.Claims, error)
}

const (
	// TokenModePlain selects the reversible base64 encoding the original
	// system shipped with. The token carries no signature and no expiry;
	// the online registry is the only revocation mechanism.
	TokenModePlain = "plain"
	// TokenModeHS256 selects HMAC-signed tokens carrying the same claims,
	// offered as a hardening option on top of the plain format.
	TokenModeHS256 = "hs256"

	claimDelimiter = ":"
	claimCount     = 4
)

// NewTokenCodec selects a codec by mode. TTL only applies to signed tokens;
// zero means they never expire, matching the plain format's behaviour.
func NewTokenCodec(mode, secret string, ttl time.Duration) (TokenCodec, error) {
	switch mode {
	case "", TokenModePlain:
		return PlainCodec{}, nil
	case TokenModeHS256:
		if secret == "" {
			return nil, fmt.Errorf("hs256 token mode requires a secret")
		}
		return &SignedCodec{secret: []byte(secret), ttl: ttl}, nil
	default:
		return nil, fmt.Errorf("unknown token mode %q", mode)
	}
}

// PlainCodec encodes claims as base64("id:email:username:isAdmin").
type PlainCodec struct{}

// Encode joins the claim quadruple and base64-encodes it.
func (PlainCodec) Encode(claims domain.Claims) (string, error) {
	joined := strings.Join([]string{
		strconv.FormatInt(claims.UserID, 10),
		claims.Email,
		claims.Username,
		strconv.FormatBool(claims.IsAdmin),
	}, claimDelimiter)

	return base64.StdEncoding.EncodeToString([]byte(joined)), nil
}

// Decode reverses Encode. Any structural defect (bad base64, wrong field
// count, unparseable id or flag) is an error; callers translate it into
// their malformed-token failure.
func (PlainCodec) Decode(token string) (domain.Claims, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return domain.Claims{}, fmt.Errorf("decode token: %w", err)
	}

	parts := strings.Split(string(raw), claimDelimiter)
	if len(parts) != claimCount {
		return domain.Claims{}, fmt.Errorf("token carries %d fields, want %d", len(parts), claimCount)
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return domain.Claims{}, fmt.Errorf("parse user id claim: %w", err)
	}

	isAdmin, err := strconv.ParseBool(parts[3])
	if err != nil {
		return domain.Claims{}, fmt.Errorf("parse admin claim: %w", err)
	}

	return domain.Claims{
		UserID:   userID,
		Email:    parts[1],
		Username: parts[2],
		IsAdmin:  isAdmin,
	}, nil
}

// SignedCodec issues HS256 JWTs carrying the same identity quadruple.
type SignedCodec struct {
	secret []byte
	ttl    time.Duration
}

type signedClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Encode signs the claims with the configured secret.
func (c *SignedCodec) Encode(claims domain.Claims) (string, error) {
	now := time.Now().UTC()
	registered := jwt.RegisteredClaims{
		Subject:  strconv.FormatInt(claims.UserID, 10),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if c.ttl > 0 {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, signedClaims{
		Email:            claims.Email,
		Username:         claims.Username,
		IsAdmin:          claims.IsAdmin,
		RegisteredClaims: registered,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Decode verifies the signature and extracts the claims.
func (c *SignedCodec) Decode(token string) (domain.Claims, error) {
	parsed := &signedClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), parsed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return domain.Claims{}, fmt.Errorf("parse token: %w", err)
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil {
		return domain.Claims{}, fmt.Errorf("parse subject claim: %w", err)
	}

	return domain.Claims{
		UserID:   userID,
		Email:    parsed.Email,
		Username: parsed.Username,
		IsAdmin:  parsed.IsAdmin,
	}, nil
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// JoinTokenType is the type discriminator embedded in signed join tokens,
// distinguishing them from session tokens signed with the same key.
const JoinTokenType = "join_token"

// JoinTokenTTL is how long an issued join token stays redeemable.
const JoinTokenTTL = 5 * time.Minute

// TokenManager signs and verifies the two credentials the admission flow
// uses: long-lived session tokens bound to a user id, and short-lived
// single-use join tokens bound to a journey.
type TokenManager struct {
	secretKey       []byte
	sessionDuration time.Duration
}

// SessionClaims is the payload of a session token. Redemption issues one
// on every success path so a retrying client carries its identity with it.
type SessionClaims struct {
	UserID  string `json:"user_id"`
	IsGuest bool   `json:"is_guest"`
	jwt.RegisteredClaims
}

// JoinClaims is the payload of a signed join token. The ID field holds the
// jti persisted on the journey; JourneyID lets a retrying caller be
// recognized even after the token itself was consumed.
type JoinClaims struct {
	JourneyID string `json:"journey_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// NewTokenManager creates a token manager with the given signing secret.
// secretKey should be a strong random string (e.g., 32 bytes).
// sessionDuration is how long session tokens remain valid.
func NewTokenManager(secretKey string, sessionDuration time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:       []byte(secretKey),
		sessionDuration: sessionDuration,
	}
}

// GenerateSession creates a session token for the given user id.
func (m *TokenManager) GenerateSession(userID string, isGuest bool) (string, error) {
	claims := &SessionClaims{
		UserID:  userID,
		IsGuest: isGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.sessionDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}

// ValidateSession parses and validates a session token, returning the
// claims if valid.
func (m *TokenManager) ValidateSession(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, m.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateJoin mints a signed join token for the journey. The returned jti
// is what the caller persists on the journey record; the signed string is
// what goes into the QR code.
func (m *TokenManager) GenerateJoin(journeyID string) (tokenString, jti string, expiresAt time.Time, err error) {
	jti = uuid.New().String()
	expiresAt = time.Now().Add(JoinTokenTTL)

	claims := &JoinClaims{
		JourneyID: journeyID,
		TokenType: JoinTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString(m.secretKey)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign join token: %w", err)
	}
	return tokenString, jti, expiresAt, nil
}

// DecodedJoin is the result of decoding a join credential. JourneyID is
// empty when the caller presented a bare jti, since the bare form carries
// no journey binding of its own.
type DecodedJoin struct {
	JourneyID string
	JTI       string
}

// DecodeJoin resolves the two transport encodings of a join credential to
// a single jti. It first tries the signed structured form; anything that
// does not parse as one is treated as a bare jti (the space-constrained QR
// encoding). A signed token of the wrong type is an error, not a fallback:
// a session token must never be redeemable as a join token.
//
// Note the asymmetry after consumption: consuming a token clears the
// stored jti, so a bare-jti retry can no longer resolve its journey and
// fails, while the signed form still names the journey and lets an
// already-admitted caller short-circuit idempotently.
func (m *TokenManager) DecodeJoin(input string) (*DecodedJoin, error) {
	token, err := jwt.ParseWithClaims(input, &JoinClaims{}, m.keyFunc)
	if err != nil {
		// Not a signed token; treat the whole input as a bare jti.
		if _, parseErr := uuid.Parse(input); parseErr != nil {
			return nil, fmt.Errorf("%w: not a signed join token or jti", ErrInvalidToken)
		}
		return &DecodedJoin{JTI: input}, nil
	}

	claims, ok := token.Claims.(*JoinClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != JoinTokenType {
		return nil, fmt.Errorf("%w: wrong token type %q", ErrInvalidToken, claims.TokenType)
	}
	return &DecodedJoin{JourneyID: claims.JourneyID, JTI: claims.ID}, nil
}

func (m *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return m.secretKey, nil
}

package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Roles carried by an Identity.
const (
	RoleAuthenticated = "authenticated"
	RoleService       = "service"
)

var tokenFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_token_failures_total",
		Help: "Total number of rejected token validations by reason",
	},
	[]string{"reason"},
)

// Identity is a verified caller. Subject is the user ID from a validated
// token, or the principal name passed to ServiceIdentity.
type Identity struct {
	Subject string
	Role    string
}

// Claims is the token payload the verifier reads. Only registered claims
// matter for validation; anything else in the payload is ignored.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens. An empty secret is a legal but
// degraded state: the verifier logs one warning at construction and then
// rejects every token until restarted with a secret.
type Verifier struct {
	secret []byte
	logger zerolog.Logger
}

func NewVerifier(secret string, logger zerolog.Logger) *Verifier {
	if secret == "" {
		logger.Warn().Msg("jwt secret not configured, all token validation will fail")
	}
	return &Verifier{
		secret: []byte(secret),
		logger: logger,
	}
}

// ExtractIdentity resolves an Authorization header value to an identity.
// The header must be exactly "Bearer <token>" (scheme case-insensitive);
// anything else returns nil without touching the token. Invalid headers are
// indistinguishable from invalid tokens to the caller.
func (v *Verifier) ExtractIdentity(header string) *Identity {
	if header == "" {
		return nil
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil
	}

	return v.Validate(parts[1])
}

// Validate checks the token signature, expiry and issued-at, and returns the
// identity of its subject. All failures return nil; the reason is logged and
// counted but never exposed to the caller.
func (v *Verifier) Validate(tokenStr string) *Identity {
	if len(v.secret) == 0 {
		tokenFailures.WithLabelValues("no_secret").Inc()
		v.logger.Warn().Msg("token rejected: no jwt secret configured")
		return nil
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		reason := failureReason(err)
		tokenFailures.WithLabelValues(reason).Inc()
		v.logger.Warn().Err(err).Str("reason", reason).Msg("token rejected")
		return nil
	}

	if claims.Subject == "" {
		tokenFailures.WithLabelValues("no_subject").Inc()
		v.logger.Warn().Msg("token rejected: no subject claim")
		return nil
	}

	return &Identity{Subject: claims.Subject, Role: RoleAuthenticated}
}

// DecodeUnverified returns the raw claims of a token without checking the
// signature or lifetime. For logging and debugging only; the result carries
// no trust and must never feed an authorization decision.
func (v *Verifier) DecodeUnverified(tokenStr string) map[string]any {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil
	}
	return claims
}

// ServiceIdentity returns an identity for internal callers acting without a
// user token. Trust is asserted by the caller, not proven; it must never be
// reachable from request input.
func ServiceIdentity(subject string) *Identity {
	return &Identity{Subject: subject, Role: RoleService}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return "not_yet_valid"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}

// Package auth verifies bearer tokens issued by an external identity
// provider. Tokens are validated against the provider's JWKS endpoint
// (RS256), or against a shared secret (HS256) in development and tests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/rs/zerolog"
)

// SubjectKey is the fiber locals key under which the verified token
// subject is stored for downstream handlers.
const SubjectKey = "auth_subject"

// Config holds the identity-provider settings.
type Config struct {
	// Domain is the provider tenant domain, e.g. "example.auth0.com".
	// The issuer and JWKS URL are derived from it.
	Domain string
	// Audience is the expected "aud" claim.
	Audience string
	// Secret enables HS256 verification with a shared secret instead of
	// JWKS. Intended for development and tests only.
	Secret string
}

// Verifier validates bearer tokens and exposes a fiber middleware.
type Verifier struct {
	audience string
	issuer   string
	secret   []byte
	jwks     *jwk.AutoRefresh
	jwksURL  string
	log      zerolog.Logger
}

// NewVerifier builds a Verifier. In JWKS mode the key set is fetched once
// up front and auto-refreshed in the background afterwards; ctx bounds the
// lifetime of the refresher.
func NewVerifier(ctx context.Context, cfg Config, log zerolog.Logger) (*Verifier, error) {
	v := &Verifier{
		audience: cfg.Audience,
		log:      log,
	}
	if cfg.Domain != "" {
		v.issuer = fmt.Sprintf("https://%s/", cfg.Domain)
	}

	if cfg.Secret != "" {
		v.secret = []byte(cfg.Secret)
		return v, nil
	}

	if cfg.Domain == "" {
		return nil, errors.New("auth: either a provider domain or a shared secret must be configured")
	}

	v.jwksURL = v.issuer + ".well-known/jwks.json"
	ar := jwk.NewAutoRefresh(ctx)
	ar.Configure(v.jwksURL, jwk.WithMinRefreshInterval(15*time.Minute))
	if _, err := ar.Refresh(ctx, v.jwksURL); err != nil {
		return nil, fmt.Errorf("auth: fetch jwks: %w", err)
	}
	v.jwks = ar

	return v, nil
}

// Verify parses and validates a raw token string, returning its claims.
func (v *Verifier) Verify(ctx context.Context, raw string) (*jwt.RegisteredClaims, error) {
	methods := []string{jwt.SigningMethodRS256.Alg()}
	if v.secret != nil {
		methods = []string{jwt.SigningMethodHS256.Alg()}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, v.keyFunc(ctx), opts...); err != nil {
		return nil, err
	}
	return claims, nil
}

func (v *Verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if v.secret != nil {
			return v.secret, nil
		}

		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header missing kid")
		}

		set, err := v.jwks.Fetch(ctx, v.jwksURL)
		if err != nil {
			return nil, err
		}
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("no key found for kid %q", kid)
		}

		var raw interface{}
		if err := key.Raw(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
}

// Middleware returns a fiber handler that rejects requests lacking a valid
// bearer token and stores the token subject in request locals.
func (v *Verifier) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		claims, err := v.Verify(c.UserContext(), raw)
		if err != nil {
			v.log.Warn().Err(err).Str("path", c.Path()).Msg("token verification failed")
			return unauthorized(c)
		}

		c.Locals(SubjectKey, claims.Subject)
		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("missing bearer token")
	}
	return parts[1], nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "Unauthorized",
		"message": "Invalid or missing authentication token",
	})
}

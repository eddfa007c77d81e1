package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SubjectLocalKey is the Fiber locals key holding the verified token subject.
const SubjectLocalKey = "auth_subject"

// AuthOptions configures bearer token verification.
type AuthOptions struct {
	Keys     keyfunc.Keyfunc
	Issuer   string
	Audience string
}

// Auth verifies an identity provider bearer token and stores its subject in locals.
// A missing or invalid token is rejected with 401.
func Auth(opts AuthOptions) fiber.Handler {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "EdDSA"}),
		jwt.WithExpirationRequired(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	return func(c *fiber.Ctx) error {
		raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, opts.Keys.KeyfuncCtx(c.UserContext()), parserOpts...)
		if err != nil || !token.Valid || claims.Subject == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(SubjectLocalKey, claims.Subject)
		return c.Next()
	}
}

// SubjectFromCtx returns the verified subject, if the Auth middleware ran.
func SubjectFromCtx(c *fiber.Ctx) (string, bool) {
	sub, ok := c.Locals(SubjectLocalKey).(string)
	return sub, ok && sub != ""
}

const jwksRefreshInterval = time.Hour

// NewJWKS returns a Keyfunc backed by the identity provider's JWKS endpoint.
// Startup does not fail if the endpoint is not reachable yet; refresh errors are logged.
// The background refresh stops when ctx is cancelled.
func NewJWKS(ctx context.Context, jwksURL string, logger *slog.Logger) (keyfunc.Keyfunc, error) {
	if jwksURL == "" {
		return nil, fmt.Errorf("jwks url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: 10 * time.Second},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           jwksRefreshInterval,
		RefreshErrorHandler: func(ctx context.Context, err error) {
			logger.ErrorContext(ctx, "jwks refresh failed",
				"component", "auth",
				"url", jwksURL,
				"error", err,
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwks storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("keyfunc: %w", err)
	}
	return k, nil
}

package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"

	"github.com/trezcool/academia/core/user"
)

func newRequestID() string {
	return ulid.Make().String()
}

// principalMiddleware attaches the Principal of a valid bearer token to the request context.
// Requests without a token go through anonymously: the core rejects them with ErrUnauthenticated.
func principalMiddleware(secret []byte, audience string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return next(ctx)
			}

			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || raw == "" {
				return errMalformedToken
			}
			claims, err := parseToken(raw, secret, audience)
			if err != nil {
				return errInvalidToken.WithInternal(err)
			}

			req := ctx.Request()
			ctx.SetRequest(req.WithContext(user.ContextWithPrincipal(req.Context(), claims.Principal())))
			return next(ctx)
		}
	}
}

func principal(ctx echo.Context) user.Principal {
	p, _ := user.PrincipalFromContext(ctx.Request().Context())
	return p
}

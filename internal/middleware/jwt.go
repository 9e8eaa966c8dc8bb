package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"catalog/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const tokenContextKey = "token"

// JWTConfig selects how bearer tokens are verified. JWKSURL wins over Secret.
type JWTConfig struct {
	Secret  string
	JWKSURL string
}

// Enabled reports whether any verification key is configured.
func (cfg JWTConfig) Enabled() bool {
	return cfg.Secret != "" || cfg.JWKSURL != ""
}

// JWTMiddleware handles JWT token validation. The returned stop func releases
// the JWKS refresh goroutine and is safe to call when none was started.
func JWTMiddleware(cfg JWTConfig) (echo.MiddlewareFunc, func(), error) {
	config := echojwt.Config{
		ContextKey:     tokenContextKey,
		SuccessHandler: storeSubject,
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, echojwt.ErrJWTMissing) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token").SetInternal(err)
		},
	}

	stop := func() {}
	switch {
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, stop, fmt.Errorf("failed to load JWKS: %w", err)
		}
		config.KeyFunc = jwks.Keyfunc
		stop = jwks.EndBackground
	case cfg.Secret != "":
		config.SigningKey = []byte(cfg.Secret)
	default:
		return nil, stop, errors.New("jwt: no secret or JWKS URL configured")
	}

	return echojwt.WithConfig(config), stop, nil
}

func storeSubject(c echo.Context) {
	token, ok := c.Get(tokenContextKey).(*jwt.Token)
	if !ok {
		return
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return
	}
	ctx := common.WithSubject(c.Request().Context(), sub)
	c.SetRequest(c.Request().WithContext(ctx))
}

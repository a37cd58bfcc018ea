package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/viper"
	"github.com/tifye/bungeoppang/assert"
)

const (
	adminSubject  = "shop-admin"
	adminTokenTTL = time.Hour
)

func signingKey(config *viper.Viper) []byte {
	key := config.GetString("JWT_SIGNING_KEY")
	assert.AssertNotEmpty(key)
	return []byte(key)
}

func verifyToken(c echo.Context, config *viper.Viper) error {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return jwt.ErrTokenMalformed
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	_, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return signingKey(config), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithSubject(adminSubject),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	return err
}

func tokenErrorStatus(err error) int {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, jwt.ErrTokenMalformed):
		return http.StatusBadRequest
	default:
		return http.StatusForbidden
	}
}

func requireAuthMiddleware(logger *log.Logger, config *viper.Viper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := verifyToken(c, config); err != nil {
				logger.Debug("token rejected", "err", err, "path", c.Path())
				return c.NoContent(tokenErrorStatus(err))
			}
			return next(c)
		}
	}
}

func handlePostVerifyToken(logger *log.Logger, config *viper.Viper) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := verifyToken(c, config); err != nil {
			logger.Debug("token rejected", "err", err)
			return c.NoContent(tokenErrorStatus(err))
		}
		return c.NoContent(http.StatusOK)
	}
}

// handleGetToken trades a TOTP passcode for a short lived admin token.
func handleGetToken(logger *log.Logger, config *viper.Viper) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret := config.GetString("OTP_SECRET")
		assert.AssertNotEmpty(secret)

		passcode := c.Request().Header.Get("Passcode")
		if passcode == "" {
			return c.NoContent(http.StatusBadRequest)
		}
		if !totp.Validate(passcode, secret) {
			return c.NoContent(http.StatusUnauthorized)
		}

		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   adminSubject,
			ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		})
		signed, err := token.SignedString(signingKey(config))
		if err != nil {
			logger.Error("jwt sign", "err", err)
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, signed)
	}
}

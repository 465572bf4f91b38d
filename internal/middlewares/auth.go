package middlewares

import (
	"crypto/subtle"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/survey-campaign-bot/pkg/response"
)

// InboundKeyHeader carries the shared secret the transport gateway sends
// with every inbound webhook call.
const InboundKeyHeader = "x-gateway-inbound-key"

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// SharedKeyAuth rejects requests whose header does not carry key. An
// unconfigured key is a server misconfiguration.
func SharedKeyAuth(header, key string) echo.MiddlewareFunc {
	if key == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return response.InternalServerError(
					c,
					fmt.Errorf("shared key is not configured for this endpoint"),
				)
			}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(header)
			if token == "" || !secureCompare(token, key) {
				return response.Unauthorized(c)
			}

			return next(c)
		}
	}
}

func InboundKeyAuth(key string) echo.MiddlewareFunc {
	return SharedKeyAuth(InboundKeyHeader, key)
}

package gate

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/soffa-projects/go-webstack/api"
	"github.com/soffa-projects/go-webstack/session"
	"github.com/soffa-projects/go-webstack/store"
	"github.com/soffa-projects/go-webstack/token"
)

const (
	loginPath        = "/auth/login"
	unauthorizedPath = "/unauthorized"
	adminPrefix      = "/admin"
)

// publicPaths pass through the gate without a session check. Each entry
// matches exactly or as a path prefix.
var publicPaths = []string{
	"/",
	"/auth/login",
	"/auth/signup",
	"/api/auth",
	"/api/webhooks",
	"/api/health",
	"/favicon.ico",
	"/assets",
}

// Middleware is the edge authentication gate. It runs before every route,
// assigns the correlation id, strips untrusted identity headers, and for
// non-public paths validates the session cookie and injects the verified
// identity. It is the sole writer of the trusted identity headers.
func Middleware(codec *token.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// Identity headers are only trusted when this gate wrote them.
			req.Header.Del(api.HeaderUserId)
			req.Header.Del(api.HeaderUserRole)

			requestId := req.Header.Get(api.HeaderRequestId)
			if requestId == "" {
				requestId = uuid.NewString()
				req.Header.Set(api.HeaderRequestId, requestId)
			}
			c.Response().Header().Set(api.HeaderRequestId, requestId)

			path := req.URL.Path
			if isPublicPath(path) {
				return next(c)
			}

			raw, ok := session.Read(c)
			if !ok {
				return redirectToLogin(c, path)
			}

			claims, err := codec.Verify(raw)
			if err != nil {
				// Expired and malformed look the same to the client.
				log.WithField("request_id", requestId).Debugf("session rejected: %v", err)
				return redirectToLogin(c, path)
			}

			if strings.HasPrefix(path, adminPrefix) && claims.Role != store.RoleAdmin {
				return c.Redirect(http.StatusFound, unauthorizedPath)
			}

			req.Header.Set(api.HeaderUserId, claims.UserId)
			req.Header.Set(api.HeaderUserRole, claims.Role)
			return next(c)
		}
	}
}

func isPublicPath(path string) bool {
	for _, public := range publicPaths {
		if path == public || strings.HasPrefix(path, public+"/") {
			return true
		}
	}
	// static assets
	return strings.Contains(path, ".")
}

func redirectToLogin(c echo.Context, from string) error {
	target := url.URL{Path: loginPath}
	query := url.Values{}
	query.Set("from", from)
	target.RawQuery = query.Encode()
	return c.Redirect(http.StatusFound, target.String())
}

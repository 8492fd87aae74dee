package auth

import (
	gerrors "errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/soffa-projects/go-webstack/api"
	"github.com/soffa-projects/go-webstack/bus"
	"github.com/soffa-projects/go-webstack/cache"
	"github.com/soffa-projects/go-webstack/oauth"
	"github.com/soffa-projects/go-webstack/schema"
	"github.com/soffa-projects/go-webstack/session"
	"github.com/soffa-projects/go-webstack/store"
	"github.com/soffa-projects/go-webstack/token"
)

const defaultRedirect = "/dashboard"

var errUserNotFound = gerrors.New("user not found")

// Handler owns the login, callback, logout and me endpoints.
type Handler struct {
	users    store.UserRepo
	codec    *token.Codec
	cookies  *session.Manager
	provider oauth.Provider
	userInfo cache.Cache
}

func NewHandler(users store.UserRepo, codec *token.Codec, cookies *session.Manager, provider oauth.Provider, userInfo cache.Cache) *Handler {
	return &Handler{
		users:    users,
		codec:    codec,
		cookies:  cookies,
		provider: provider,
		userInfo: userInfo,
	}
}

// Login redirects to the identity provider's consent page, carrying the
// requested return path in the OAuth state parameter.
func (h *Handler) Login(c echo.Context) error {
	redirectTo := c.QueryParam("redirectTo")
	if redirectTo == "" {
		redirectTo = c.QueryParam("state")
	}
	if redirectTo == "" {
		redirectTo = defaultRedirect
	}
	return c.Redirect(http.StatusFound, h.provider.LoginURL(url.QueryEscape(redirectTo)))
}

// Callback completes the OAuth flow. Every failure redirects to the login
// page with a distinct error code, a raw error never reaches the browser.
func (h *Handler) Callback(c echo.Context) error {
	logger := requestLogger(c)
	ctx := c.Request().Context()
	query := c.QueryParams()

	if providerError := query.Get("error"); providerError != "" {
		logger.Errorf("oauth provider error: %s", providerError)
		return redirectWithError(c, "oauth")
	}

	code := query.Get("code")
	if code == "" {
		logger.Error("missing authorization code")
		return redirectWithError(c, "missing_code")
	}

	rawIdToken, err := h.provider.Exchange(ctx, code)
	if err != nil {
		if gerrors.Is(err, oauth.ErrMissingIdToken) {
			logger.Error("missing id token in exchange response")
			return redirectWithError(c, "missing_id_token")
		}
		logger.Errorf("code exchange failed: %v", err)
		return redirectWithError(c, "server_error")
	}

	identity, err := h.provider.VerifyIdToken(ctx, rawIdToken)
	if err != nil {
		logger.Errorf("id token rejected: %v", err)
		return redirectWithError(c, "invalid_token")
	}

	user, err := h.users.FindByIdentity(identity.Email, identity.Subject)
	if err != nil {
		logger.Errorf("user lookup failed: %v", err)
		return redirectWithError(c, "server_error")
	}

	if user != nil {
		user.GoogleId = &identity.Subject
		if identity.Name != "" {
			user.Name = identity.Name
		}
		if identity.Picture != "" {
			user.Avatar = identity.Picture
		}
		if err = h.users.Save(user); err != nil {
			logger.Errorf("user update failed: %v", err)
			return redirectWithError(c, "server_error")
		}
		h.userInfo.Delete(userCacheKey(user.Id))
	} else {
		user = &store.User{
			Email:    identity.Email,
			GoogleId: &identity.Subject,
			Name:     identity.Name,
			Avatar:   identity.Picture,
			Role:     store.RoleCustomer,
		}
		if err = h.users.Create(user); err != nil {
			logger.Errorf("user creation failed: %v", err)
			return redirectWithError(c, "server_error")
		}
		logger.Infof("new user created: %s", user.Id)
		bus.Publish(bus.UserCreatedTopic, bus.Event{Subject: user.Id, Event: "user.created", Data: user.Email})
	}

	signed, err := h.codec.Sign(user.Id, user.Email, user.Role, user.PermissionNames())
	if err != nil {
		return redirectWithError(c, "server_error")
	}
	h.cookies.Write(c, signed)
	bus.Publish(bus.UserLoginTopic, bus.Event{Subject: user.Id, Event: "auth.login"})

	redirectUrl := defaultRedirect
	if state := query.Get("state"); state != "" {
		if decoded, err := url.QueryUnescape(state); err == nil && decoded != "" {
			redirectUrl = decoded
		}
	}
	logger.Infof("user authenticated: %s", user.Id)
	return c.Redirect(http.StatusFound, redirectUrl)
}

// Logout clears the session cookie. It succeeds regardless of prior state.
func (h *Handler) Logout(c echo.Context) error {
	h.cookies.Clear(c)
	return c.JSON(http.StatusOK, schema.Map{"success": true})
}

// Me returns the current identity, or 401 when the session is missing,
// invalid, or points at a user that no longer exists.
func (h *Handler) Me(c echo.Context) error {
	logger := requestLogger(c)

	raw, ok := session.Read(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, nil)
	}
	claims, err := h.codec.Verify(raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, nil)
	}

	var info schema.UserInfo
	err = h.userInfo.Get(&info, userCacheKey(claims.UserId), func() (any, error) {
		user, err := h.users.FindById(claims.UserId)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, errUserNotFound
		}
		return schema.UserInfo{
			UserId:      user.Id,
			Email:       user.Email,
			Role:        user.Role,
			Permissions: user.PermissionNames(),
			Name:        user.Name,
			Avatar:      user.Avatar,
		}, nil
	})
	if err != nil {
		if gerrors.Is(err, errUserNotFound) {
			logger.Warnf("user not found in store: %s", claims.UserId)
			return c.JSON(http.StatusUnauthorized, nil)
		}
		logger.Errorf("error fetching current user: %v", err)
		return c.JSON(http.StatusInternalServerError, nil)
	}
	return c.JSON(http.StatusOK, info)
}

func requestLogger(c echo.Context) *log.Entry {
	return log.WithField("request_id", c.Request().Header.Get(api.HeaderRequestId))
}

func redirectWithError(c echo.Context, code string) error {
	return c.Redirect(http.StatusFound, "/login?error="+code)
}

func userCacheKey(userId string) string {
	return "user:" + userId
}

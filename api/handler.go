package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/soffa-projects/go-webstack/errors"
	"github.com/soffa-projects/go-webstack/schema"
)

const (
	msgUnauthorized  = "Unauthorized. Please log in to access this resource."
	msgForbidden     = "Forbidden. You do not have the necessary permissions to access this resource."
	msgInvalidJson   = "Invalid JSON body."
	msgValidation    = "Validation error. Please review your request payload."
	msgInternalError = "Internal server error. Please try again later."
)

// Route is the static contract of an endpoint, fixed at registration time.
type Route struct {
	Public       bool
	RequiredRole string
	Schema       *schema.Object
}

// HandlerFunc is a business handler. It writes its own success response and
// returns an error (typed or not) on failure.
type HandlerFunc func(c echo.Context, p Params, data any) error

// Handler wraps a business handler with the uniform request pipeline:
// correlation, authentication context, role enforcement, body parsing, schema
// validation and error translation. Every route goes through it so no handler
// author can forget an authorization or error-shape rule.
func Handler(route Route, fn HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		requestId := req.Header.Get(HeaderRequestId)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		logger := log.WithField("request_id", requestId)
		logger.Infof("incoming request %s %s", req.Method, req.URL.Path)

		auth := AuthFromRequest(req)

		if !route.Public {
			if !auth.Authenticated {
				return c.JSON(http.StatusUnauthorized, schema.ErrorResponse{Message: msgUnauthorized})
			}
			if !auth.RoleSatisfies(route.RequiredRole) {
				return c.JSON(http.StatusForbidden, schema.ErrorResponse{Message: msgForbidden})
			}
		}

		data, err := parseBody(req, logger)
		if err != nil {
			return writeError(c, logger, err)
		}

		if route.Schema != nil && data != nil {
			coerced, issues := route.Schema.Validate(data)
			if issues != nil {
				logger.Warnf("validation failed for %s: %v", req.RequestURI, issues)
				return c.JSON(http.StatusBadRequest, schema.ErrorResponse{
					Message: msgValidation,
					Errors:  issues,
				})
			}
			data = coerced
		}

		params := Params{
			Auth:    auth,
			Query:   c.QueryParams(),
			Headers: req.Header,
			Request: req,
		}

		return dispatch(c, logger, fn, params, data)
	}
}

// dispatch invokes the business handler. Whatever escapes it, panic or error,
// is translated here so internals never reach the client.
func dispatch(c echo.Context, logger *log.Entry, fn HandlerFunc, params Params, data any) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Errorf("panic while handling request %s: %v", c.Request().RequestURI, recovered)
			err = c.JSON(http.StatusInternalServerError, schema.ErrorResponse{Message: msgInternalError})
		}
	}()
	if handlerErr := fn(c, params, data); handlerErr != nil {
		return writeError(c, logger, handlerErr)
	}
	return nil
}

// parseBody dispatches on the normalized media type. Unknown media types and
// bodiless requests yield nil data, the route owns raw access if it needs it.
func parseBody(req *http.Request, logger *log.Entry) (any, error) {
	if req.Method == http.MethodGet || req.Method == http.MethodHead || req.ContentLength == 0 {
		return nil, nil
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(req.Header.Get(echo.HeaderContentType), ";")[0]))

	switch mediaType {
	case echo.MIMEApplicationJSON:
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, errors.Functional(msgInvalidJson)
		}
		// leave the body readable for handlers that bind into typed inputs
		req.Body = io.NopCloser(bytes.NewReader(raw))
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			logger.Warnf("error parsing %s body: %v", mediaType, err)
			return nil, errors.Functional(msgInvalidJson)
		}
		return data, nil
	case echo.MIMEApplicationForm:
		if err := req.ParseForm(); err != nil {
			logger.Warnf("error parsing %s body: %v", mediaType, err)
			return nil, errors.Functional(fmt.Sprintf("Invalid %s body.", mediaType))
		}
		return flatten(req.PostForm), nil
	case echo.MIMEMultipartForm:
		if err := req.ParseMultipartForm(32 << 20); err != nil {
			logger.Warnf("error parsing %s body: %v", mediaType, err)
			return nil, errors.Functional(fmt.Sprintf("Invalid %s body.", mediaType))
		}
		return flatten(req.MultipartForm.Value), nil
	default:
		return nil, nil
	}
}

func flatten(values map[string][]string) map[string]any {
	result := make(map[string]any, len(values))
	for key, list := range values {
		if len(list) > 0 {
			result[key] = list[0]
		}
	}
	return result
}

// writeError maps typed errors to their status and response shape. Anything
// unrecognized is logged and downgraded to a generic 500.
func writeError(c echo.Context, logger *log.Entry, err error) error {
	switch e := err.(type) {
	case *errors.FunctionalError:
		return c.JSON(http.StatusBadRequest, errorResponse(e.Message, e.Details))
	case *errors.UnauthorizedError:
		return c.JSON(http.StatusUnauthorized, errorResponse(e.Message, nil))
	case *errors.ForbiddenError:
		return c.JSON(http.StatusForbidden, errorResponse(e.Message, nil))
	case *errors.ResourceNotFoundError:
		return c.JSON(http.StatusNotFound, errorResponse(e.Message, nil))
	case *errors.ConflictError:
		return c.JSON(http.StatusConflict, errorResponse(e.Message, nil))
	case *errors.TechnicalError:
		logger.Errorf("error while handling request %s: %v", c.Request().RequestURI, err)
		return c.JSON(http.StatusInternalServerError, schema.ErrorResponse{Message: msgInternalError})
	case *echo.HTTPError:
		return c.JSON(e.Code, schema.ErrorResponse{Message: fmt.Sprintf("%v", e.Message)})
	default:
		logger.Errorf("error while handling request %s: %v", c.Request().RequestURI, err)
		return c.JSON(http.StatusInternalServerError, schema.ErrorResponse{Message: msgInternalError})
	}
}

func errorResponse(message string, details any) schema.ErrorResponse {
	response := schema.ErrorResponse{Message: message}
	if issues, ok := details.(map[string][]string); ok {
		response.Errors = issues
	}
	return response
}

package api

import (
	"net/http"
	"net/url"
)

// Trusted identity headers. The gate is the only writer on the trusted path,
// it strips any inbound values before they can reach a handler.
const (
	HeaderUserId    = "x-user-id"
	HeaderUserRole  = "x-user-role"
	HeaderRequestId = "x-request-id"
)

// Auth is the per-request authentication context, derived once from the
// trusted headers and never persisted.
type Auth struct {
	UserId        string
	Role          string
	Permissions   []string
	Authenticated bool
}

// RoleSatisfies reports whether the context meets the required role.
// An empty requirement is always satisfied.
func (a Auth) RoleSatisfies(required string) bool {
	if required == "" {
		return true
	}
	return a.Authenticated && a.Role == required
}

// AuthFromRequest builds the authentication context from the trusted headers.
// Both headers must be present, anything less is an invalid context.
func AuthFromRequest(r *http.Request) Auth {
	userId := r.Header.Get(HeaderUserId)
	role := r.Header.Get(HeaderUserRole)
	if userId == "" || role == "" {
		return Auth{}
	}
	return Auth{UserId: userId, Role: role, Authenticated: true}
}

// Params carries the request context handed to business handlers.
type Params struct {
	Auth    Auth
	Query   url.Values
	Headers http.Header
	Request *http.Request
}

package schema

import "time"

type Map = map[string]any

// ErrorResponse is the uniform error shape returned by every API route.
// Errors is only populated for validation failures.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Services:  make(map[string]string),
	}
}

func (h *HealthStatus) SetServiceStatus(name string, err error) {
	if err != nil {
		h.Status = "error"
		h.Services[name] = "error"
		return
	}
	h.Services[name] = "ok"
}

// UserInfo is the identity payload returned by /api/auth/me.
type UserInfo struct {
	UserId      string   `json:"userId"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Name        string   `json:"name,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
}

type ProfileUpdateInput struct {
	Name   string `json:"name" validate:"omitempty,min=2,max=100"`
	Bio    string `json:"bio" validate:"omitempty,max=500"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

type Profile struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Bio    string `json:"bio,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role"`
}

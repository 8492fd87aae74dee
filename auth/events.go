package auth

import (
	log "github.com/sirupsen/logrus"
	"github.com/soffa-projects/go-webstack/bus"
)

// RegisterAuditSubscribers attaches the audit trail to the domain events
// emitted by the login flow.
func RegisterAuditSubscribers() {
	_ = bus.Subscribe(bus.UserCreatedTopic, func(payload bus.Event) {
		log.WithField("user_id", payload.Subject).Info("audit: user created")
	})
	_ = bus.Subscribe(bus.UserLoginTopic, func(payload bus.Event) {
		log.WithField("user_id", payload.Subject).Info("audit: user logged in")
	})
}

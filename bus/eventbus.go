package bus

import (
	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
)

var impl = EventBus.New()

const (
	UserCreatedTopic = "user.created"
	UserLoginTopic   = "auth.login"
)

type Event struct {
	Subject string
	Event   string
	Data    any
}

type SubscribeFunc = func(payload Event)

func Subscribe(topic string, handle SubscribeFunc) error {
	return impl.Subscribe(topic, handle)
}

func SubscribeAsync(topic string, handle SubscribeFunc) error {
	return impl.SubscribeAsync(topic, handle, false)
}

func Publish(topic string, payload Event) {
	log.WithField("subject", payload.Subject).Debugf("event published: %s", topic)
	impl.Publish(topic, payload)
}

func WaitAsync() {
	impl.WaitAsync()
}

func Reset() {
	impl.WaitAsync()
	impl = EventBus.New()
}

package app

import (
	"fmt"

	"github.com/dkeye/callrelay/internal/domain"
)

// DeliveryPolicy picks which of an identity's connections receive a call event.
type DeliveryPolicy string

const (
	// DeliverBroadcast sends to every registered connection.
	DeliverBroadcast DeliveryPolicy = "broadcast"
	// DeliverLatest sends only to the most recently registered connection.
	DeliverLatest DeliveryPolicy = "latest"
)

func ParseDeliveryPolicy(s string) (DeliveryPolicy, error) {
	switch DeliveryPolicy(s) {
	case "", DeliverBroadcast:
		return DeliverBroadcast, nil
	case DeliverLatest:
		return DeliverLatest, nil
	}
	return "", fmt.Errorf("unknown delivery policy %q", s)
}

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickConnection
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(id domain.Identity, conn domain.ConnectionID) BackpressureAction
}

// SimplePolicy kicks slow connections. The disconnect path then reconciles their calls.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.Identity, domain.ConnectionID) BackpressureAction {
	return KickConnection
}

package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/placeshare/internal/core/usecases"
)

// Pinger is a dependency whose connectivity the readiness check verifies.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
// NATS, DB and Cache are optional; nil disables the feature that needs them.
type Dependencies struct {
	Places *usecases.PlaceService
	Users  *usecases.UserService
	NATS   *nats.Conn
	DB     Pinger
	Cache  Pinger
}

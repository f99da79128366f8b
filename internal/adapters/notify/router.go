package notify

import (
	"context"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// Router dispatches each notification to the notifier registered for its
// channel, falling back to a default
type Router struct {
	routes   map[domain.Channel]ports.Notifier
	fallback ports.Notifier
}

// NewRouter creates a router. fallback must not be nil.
func NewRouter(fallback ports.Notifier) *Router {
	return &Router{
		routes:   make(map[domain.Channel]ports.Notifier),
		fallback: fallback,
	}
}

// Route registers n for channel
func (r *Router) Route(channel domain.Channel, n ports.Notifier) *Router {
	r.routes[channel] = n
	return r
}

// Name identifies the router in logs
func (r *Router) Name() string { return "router" }

// Notify delivers through the channel's notifier
func (r *Router) Notify(ctx context.Context, msg ports.Notification) (*ports.Delivery, error) {
	return r.notifierFor(msg.Channel).Notify(ctx, msg)
}

func (r *Router) notifierFor(channel domain.Channel) ports.Notifier {
	if n, ok := r.routes[channel]; ok {
		return n
	}
	return r.fallback
}

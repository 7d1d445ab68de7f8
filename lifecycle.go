package users

import (
	"context"
	"time"
)

// LifecycleEventType enumerates the account lifecycle transitions the manager
// publishes.
type LifecycleEventType string

const (
	LifecycleRegistered     LifecycleEventType = "user.registered"
	LifecycleActivated      LifecycleEventType = "user.activated"
	LifecycleLogin          LifecycleEventType = "user.login"
	LifecycleLogout         LifecycleEventType = "user.logout"
	LifecyclePasswordChange LifecycleEventType = "user.password.change"
	LifecyclePasswordReset  LifecycleEventType = "user.password.reset"
	LifecycleDeleteBefore   LifecycleEventType = "user.delete.before"
	LifecycleDeleteAfter    LifecycleEventType = "user.delete.after"
)

// LifecycleEvent describes one transition. Before events carry the pre
// mutation identity; after events the durably committed one.
type LifecycleEvent struct {
	EventType  LifecycleEventType
	Identity   Identity
	// Actor is the authenticated caller for operations that require one,
	// e.g. delete. Nil for anonymous flows such as register.
	Actor      *User
	Metadata   map[string]any
	OccurredAt time.Time
}

// LifecycleSink consumes lifecycle events. Sinks run best effort: the manager
// logs record failures but never aborts an operation because of them, except
// for before events which precede the mutation by contract.
type LifecycleSink interface {
	Record(ctx context.Context, event LifecycleEvent) error
}

// LifecycleSinkFunc adapts a function to the LifecycleSink interface.
type LifecycleSinkFunc func(ctx context.Context, event LifecycleEvent) error

// Record implements LifecycleSink.
func (f LifecycleSinkFunc) Record(ctx context.Context, event LifecycleEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// SinkList fans one event out to several subscribers in order.
type SinkList []LifecycleSink

// Record implements LifecycleSink. The first subscriber error stops the fan
// out and is returned.
func (l SinkList) Record(ctx context.Context, event LifecycleEvent) error {
	for _, sink := range l {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

type noopLifecycleSink struct{}

func (noopLifecycleSink) Record(context.Context, LifecycleEvent) error {
	return nil
}

func normalizeLifecycleSink(s LifecycleSink) LifecycleSink {
	if s == nil {
		return noopLifecycleSink{}
	}
	return s
}

// Package notify broadcasts branch and record changes so that dashboards
// and metrics can recompute from a fresh snapshot.
package notify

import (
	"context"
	"time"
)

// Kind names the entity that changed.
type Kind string

const (
	KindBranch Kind = "branch"
	KindRecord Kind = "record"
)

// Op names the write that happened.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Event describes one committed write.
type Event struct {
	Kind     Kind      `json:"kind"`
	Op       Op        `json:"op"`
	ID       string    `json:"id"`
	BranchID string    `json:"branch_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher sends events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber delivers events until ctx is cancelled, then closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Broker is both ends of a notification channel.
type Broker interface {
	Publisher
	Subscriber
	Close() error
}

// Package realtime delivers change notifications for documents of the family
// sync model. A notification carries no payload: subscribers re-read the
// current state from the store, so coalesced or duplicated signals are harmless.
package realtime

import (
	"context"
	"errors"
)

// ErrClosed is returned by a broker that has been shut down.
var ErrClosed = errors.New("broker closed")

// Broker fans change notifications out to subscribers of a topic.
type Broker interface {
	// Publish signals every current subscriber of topic.
	Publish(ctx context.Context, topic string) error

	// Subscribe registers for notifications on topic. The subscription is live
	// when Subscribe returns: any Publish that starts afterwards is delivered.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Close releases the broker's resources.
	Close() error
}

// Subscription is a live registration on a topic.
type Subscription interface {
	// C receives a value after one or more publishes. Pending signals coalesce
	// into one. C is never closed.
	C() <-chan struct{}

	// Close stops delivery. It is safe to call more than once.
	Close() error
}

// ProfileTopic carries changes of a user's profile.
func ProfileTopic(userID string) string {
	return "profile/" + userID
}

// FamilyTopic carries changes of a family document, including membership.
func FamilyTopic(familyID string) string {
	return "family/" + familyID
}

// ItemsTopic carries changes to any item of a family.
func ItemsTopic(familyID string) string {
	return "items/" + familyID
}

// signal does a non-blocking send on a buffered channel of size one.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

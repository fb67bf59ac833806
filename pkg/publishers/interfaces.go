package publishers

import (
	"context"
	"io"
)

// Publisher announces one headline event on a downstream sink: a webhook, an
// SQS queue, an SNS or Pub/Sub topic, or a Telegram chat.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// ClosablePublisher is a Publisher holding a connection that must be released
// on shutdown. Fanout.Close closes every publisher implementing it.
type ClosablePublisher interface {
	Publisher
	io.Closer
}

var _ ClosablePublisher = (*gcpPubSubPublisher)(nil)

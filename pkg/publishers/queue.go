package publishers

import (
	"context"
	"fmt"
)

// queueSender is implemented per cloud provider.
type queueSender interface {
	Send(ctx context.Context, evt Event) error
}

type queuePublisher struct {
	id       string
	provider string
	sender   queueSender
}

func newQueuePublisher(ctx context.Context, cfg Config, log Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("publisher %q missing queue configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		sender queueSender
		err    error
	)
	switch cfg.Queue.Provider {
	case ProviderSQS:
		sender, err = newSQSSender(ctx, cfg.Queue.SQS, log)
	case ProviderSNS:
		sender, err = newSNSSender(ctx, cfg.Queue.SNS, log)
	case ProviderPubSub:
		sender, err = newPubSubSender(ctx, cfg.Queue.PubSub, log)
	default:
		err = fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &queuePublisher{id: cfg.ID, provider: cfg.Queue.Provider, sender: sender}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return TypeQueue }

func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	if err := p.sender.Send(ctx, evt); err != nil {
		return fmt.Errorf("%s send failed: %w", p.provider, err)
	}
	return nil
}

package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultPollInterval = 30 * time.Second

	// defaultPollLimit matches what the notification bell renders; the
	// poll never needs the full history.
	defaultPollLimit = 10
)

// Poller refreshes notifications on a fixed interval. There is no push
// channel to the backend; polling is the contract. A failed poll is
// logged and the next tick tries again; nothing is retried early.
type Poller struct {
	client   *Client
	interval time.Duration
	onUpdate func([]Notification)
	log      zerolog.Logger
}

type PollerOption func(*Poller)

func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = interval
	}
}

func WithPollerLogger(logger zerolog.Logger) PollerOption {
	return func(p *Poller) {
		p.log = logger
	}
}

// NewPoller builds a poller delivering each successful fetch to
// onUpdate. It does not start until Run is called.
func NewPoller(client *Client, onUpdate func([]Notification), options ...PollerOption) *Poller {
	poller := &Poller{
		client:   client,
		interval: defaultPollInterval,
		onUpdate: onUpdate,
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(poller)
	}
	return poller
}

// Run polls immediately, then on every interval tick, until ctx is
// cancelled. It blocks; callers run it in a goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	notifications, err := p.client.Notifications(ctx, NotificationFilter{Limit: defaultPollLimit})
	if err != nil {
		p.log.Debug().Err(err).Msg("notification poll failed")
		return
	}
	p.onUpdate(notifications)
}

// Package polling drives the long-polling update loop. The poller owns
// consumption of the update stream: Run blocks until the context is
// cancelled or the bot closes the channel, so shutdown for the caller is
// just context cancellation.
package polling

import (
	"context"
	"log/slog"

	maxbot "github.com/max-messenger/max-bot-api-client-go"
	"github.com/max-messenger/max-bot-api-client-go/schemes"
)

// Dispatch hands one update to the handler layer.
type Dispatch func(ctx context.Context, upd schemes.UpdateInterface)

type Poller struct {
	logger   *slog.Logger
	bot      *maxbot.Api
	dispatch Dispatch
}

func NewPoller(logger *slog.Logger, bot *maxbot.Api, dispatch Dispatch) *Poller {
	return &Poller{
		logger:   logger,
		bot:      bot,
		dispatch: dispatch,
	}
}

func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("Starting Long Polling")
	Consume(ctx, p.bot.GetUpdates(ctx), p.dispatch)
	p.logger.Info("Update stream closed")
}

// Consume drains updates until the stream closes or the context ends.
// Webhook mode feeds the channel its server hands back through the same
// loop.
func Consume(ctx context.Context, updates <-chan schemes.UpdateInterface, dispatch Dispatch) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			dispatch(ctx, upd)
		}
	}
}

// Package broadcast delivers an admin announcement to every registered user,
// one message at a time. Sends are sequential with a small pause so a large
// user base does not trip the Telegram flood limits.
package broadcast

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/orderbot/core/logger"
)

const (
	defaultDelay         = 50 * time.Millisecond
	defaultProgressEvery = 10
)

// Sender is the slice of *tele.Bot the broadcaster needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Options tune the delivery loop.
type Options struct {
	// Delay between consecutive sends; <= 0 selects 50ms.
	Delay time.Duration
	// ProgressEvery fires OnProgress after that many successful sends;
	// <= 0 selects 10.
	ProgressEvery int
	// OnProgress observes delivery progress, e.g. to edit a status
	// message for the admin. Errors from it are ignored.
	OnProgress func(sent, failed, total int)
	// SendOptions are passed through to every send, e.g. parse mode.
	SendOptions []interface{}
}

// Result is the final delivery tally.
type Result struct {
	Sent   int
	Failed int
	Total  int
}

// Run sends the message to every user id in order. A failed send (blocked
// bot, deleted account) is counted and skipped, never retried. Cancelling
// the context stops the loop and returns the tally so far.
func Run(ctx context.Context, sender Sender, userIDs []int64, message string, opts Options) Result {
	delay := opts.Delay
	if delay <= 0 {
		delay = defaultDelay
	}
	progressEvery := opts.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = defaultProgressEvery
	}

	res := Result{Total: len(userIDs)}
	for i, id := range userIDs {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return res
			case <-time.After(delay):
			}
		}

		if _, err := sender.Send(tele.ChatID(id), message, opts.SendOptions...); err != nil {
			res.Failed++
			logger.Debug(ctx, "service.broadcast", "send_failed",
				slog.Int64("user_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Sent++
		if opts.OnProgress != nil && res.Sent%progressEvery == 0 {
			opts.OnProgress(res.Sent, res.Failed, res.Total)
		}
	}

	logger.Info(ctx, "service.broadcast", "complete",
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
		slog.Int("total", res.Total),
	)
	return res
}

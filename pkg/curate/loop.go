package curate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thebeakers/spsdaily/internal/telegram"
	"github.com/thebeakers/spsdaily/pkg/article"
	"github.com/thebeakers/spsdaily/pkg/pipeline"
)

// Bot is the messaging surface the curator drives. Satisfied by
// *telegram.Client.
type Bot interface {
	SendMessage(ctx context.Context, text string) error
	SendReview(ctx context.Context, c *article.Candidate, index int) error
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Curator runs the interactive review session: it long-polls for
// commands and button presses and applies decisions through the state
// machine. The pending file is re-read on every decision so stale
// buttons resolve against current state.
type Curator struct {
	bot         Bot
	sm          *StateMachine
	pendingPath string
	retryWait   time.Duration
	log         *slog.Logger
}

// NewCurator wires a curator over a bot and a state machine.
func NewCurator(bot Bot, sm *StateMachine, pendingPath string, log *slog.Logger) *Curator {
	if log == nil {
		log = slog.Default()
	}
	return &Curator{
		bot:         bot,
		sm:          sm,
		pendingPath: pendingPath,
		retryWait:   5 * time.Second,
		log:         log,
	}
}

// Run polls for updates until ctx is cancelled. Expired live articles
// are cleaned up once at startup.
func (cu *Curator) Run(ctx context.Context) error {
	if removed, err := cu.sm.CleanupExpired(ctx); err != nil {
		cu.log.Warn("startup cleanup failed", "error", err)
	} else if removed > 0 {
		cu.log.Info("startup cleanup", "removed", removed)
	}

	cu.log.Info("curator listening")
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		updates, err := cu.bot.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cu.log.Warn("get updates failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cu.retryWait):
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			cu.handle(ctx, u)
		}
	}
}

func (cu *Curator) handle(ctx context.Context, u telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		cu.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		cu.handleCommand(ctx, strings.TrimSpace(u.Message.Text))
	}
}

func (cu *Curator) handleCommand(ctx context.Context, text string) {
	switch text {
	case "/review", "/start":
		cu.sendReviewQueue(ctx)
	case "/status":
		pending, err := pipeline.LoadPending(cu.pendingPath)
		if err != nil {
			cu.reply(ctx, "Could not read pending articles.")
			return
		}
		status, err := cu.sm.Status(pendingCount(pending))
		if err != nil {
			cu.reply(ctx, "Could not read live feed.")
			return
		}
		cu.reply(ctx, status)
	case "/help":
		cu.reply(ctx, "/review - send pending articles for review\n/status - pending and live counts\n/help - this message")
	}
}

func (cu *Curator) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	act, err := ParseAction(cb.Data)
	if err != nil {
		cu.log.Warn("bad callback data", "data", cb.Data, "error", err)
		cu.answer(ctx, cb.ID, "Article not found")
		return
	}
	pending, err := pipeline.LoadPending(cu.pendingPath)
	if err != nil {
		cu.log.Error("load pending failed", "error", err)
		cu.answer(ctx, cb.ID, "Could not read pending articles")
		return
	}
	result, err := cu.sm.Apply(ctx, act, pending)
	if err != nil {
		cu.log.Error("apply action failed", "action", cb.Data, "error", err)
		cu.answer(ctx, cb.ID, "Action failed")
		return
	}
	cu.log.Info("action applied", "action", cb.Data, "result", result)
	cu.answer(ctx, cb.ID, result)
}

// sendReviewQueue pushes every pending candidate as a review card with
// approve/reject/pick buttons.
func (cu *Curator) sendReviewQueue(ctx context.Context) {
	pending, err := pipeline.LoadPending(cu.pendingPath)
	if err != nil {
		cu.reply(ctx, "Could not read pending articles.")
		return
	}
	total := pendingCount(pending)
	if total == 0 {
		cu.reply(ctx, "Nothing pending. Run a collection first.")
		return
	}
	cu.reply(ctx, fmt.Sprintf("%d article(s) pending review:", total))
	for category, list := range pending {
		for i := range list {
			if err := cu.bot.SendReview(ctx, &list[i], i); err != nil {
				cu.log.Warn("send review card failed", "category", category, "index", i, "error", err)
			}
		}
	}
}

func (cu *Curator) reply(ctx context.Context, text string) {
	if err := cu.bot.SendMessage(ctx, text); err != nil {
		cu.log.Warn("send message failed", "error", err)
	}
}

func (cu *Curator) answer(ctx context.Context, callbackID, text string) {
	if err := cu.bot.AnswerCallback(ctx, callbackID, text); err != nil {
		cu.log.Warn("answer callback failed", "error", err)
	}
}

func pendingCount(p pipeline.Pending) int {
	n := 0
	for _, list := range p {
		n += len(list)
	}
	return n
}

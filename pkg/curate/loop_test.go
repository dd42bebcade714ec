package curate

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thebeakers/spsdaily/internal/jsonfile"
	"github.com/thebeakers/spsdaily/internal/telegram"
	"github.com/thebeakers/spsdaily/pkg/article"
	"github.com/thebeakers/spsdaily/pkg/pipeline"
)

// fakeBot scripts one batch of updates, then cancels the loop.
type fakeBot struct {
	cancel  context.CancelFunc
	updates []telegram.Update

	messages []string
	reviews  []string
	answers  map[string]string
}

func newFakeBot(cancel context.CancelFunc, updates []telegram.Update) *fakeBot {
	return &fakeBot{cancel: cancel, updates: updates, answers: make(map[string]string)}
}

func (b *fakeBot) SendMessage(ctx context.Context, text string) error {
	b.messages = append(b.messages, text)
	return nil
}

func (b *fakeBot) SendReview(ctx context.Context, c *article.Candidate, index int) error {
	b.reviews = append(b.reviews, c.URL)
	return nil
}

func (b *fakeBot) GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error) {
	if len(b.updates) == 0 {
		b.cancel()
		return nil, ctx.Err()
	}
	batch := b.updates
	b.updates = nil
	return batch, nil
}

func (b *fakeBot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	b.answers[callbackID] = text
	return nil
}

func runCuratorOnce(t *testing.T, updates []telegram.Update) (*fakeBot, *StateMachine, string) {
	t.Helper()

	sm, _, dir := newTestMachine(t)
	pendingPath := filepath.Join(dir, "pending_articles.json")
	pending := pipeline.Pending{
		"science": {
			pendingCandidate("science", "On Entropy", "https://example.com/entropy"),
			pendingCandidate("science", "On Time", "https://example.com/time"),
		},
	}
	if err := jsonfile.Write(pendingPath, pending); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bot := newFakeBot(cancel, updates)

	curator := NewCurator(bot, sm, pendingPath, testLogger())
	if err := curator.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	return bot, sm, dir
}

func TestCuratorReviewCommand(t *testing.T) {
	t.Parallel()

	bot, _, _ := runCuratorOnce(t, []telegram.Update{
		{UpdateID: 1, Message: &telegram.Message{Text: "/review"}},
	})

	if len(bot.messages) != 1 || !strings.Contains(bot.messages[0], "2 article(s) pending") {
		t.Errorf("messages = %v", bot.messages)
	}
	if len(bot.reviews) != 2 {
		t.Errorf("review cards = %v", bot.reviews)
	}
}

func TestCuratorApproveCallback(t *testing.T) {
	t.Parallel()

	bot, sm, _ := runCuratorOnce(t, []telegram.Update{
		{UpdateID: 1, CallbackQuery: &telegram.CallbackQuery{ID: "cb1", Data: "approve:science:0"}},
	})

	if !strings.HasPrefix(bot.answers["cb1"], "LIVE") {
		t.Errorf("answer = %q", bot.answers["cb1"])
	}
	feed, err := LoadFeed(sm.feedPath)
	if err != nil {
		t.Fatal(err)
	}
	if !feed.Contains("science", "https://example.com/entropy") {
		t.Errorf("approved article not live")
	}
}

func TestCuratorStaleCallback(t *testing.T) {
	t.Parallel()

	bot, sm, _ := runCuratorOnce(t, []telegram.Update{
		{UpdateID: 1, CallbackQuery: &telegram.CallbackQuery{ID: "cb1", Data: "approve:science:9"}},
		{UpdateID: 2, CallbackQuery: &telegram.CallbackQuery{ID: "cb2", Data: "gibberish"}},
	})

	if bot.answers["cb1"] != "Article not found" {
		t.Errorf("stale index answer = %q", bot.answers["cb1"])
	}
	if bot.answers["cb2"] != "Article not found" {
		t.Errorf("malformed data answer = %q", bot.answers["cb2"])
	}
	feed, _ := LoadFeed(sm.feedPath)
	if len(feed.Categories["science"]) != 0 {
		t.Errorf("stale callback mutated the feed")
	}
}

func TestCuratorStatusAndHelp(t *testing.T) {
	t.Parallel()

	bot, _, _ := runCuratorOnce(t, []telegram.Update{
		{UpdateID: 1, Message: &telegram.Message{Text: "/status"}},
		{UpdateID: 2, Message: &telegram.Message{Text: "/help"}},
	})

	if len(bot.messages) != 2 {
		t.Fatalf("messages = %v", bot.messages)
	}
	if !strings.Contains(bot.messages[0], "Pending review: 2") {
		t.Errorf("status = %q", bot.messages[0])
	}
	if !strings.Contains(bot.messages[1], "/review") {
		t.Errorf("help = %q", bot.messages[1])
	}
}

package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/thebeakers/spsdaily/pkg/article"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("TOKEN", "42", srv.URL)
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotPayload map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotPayload)
		w.Write([]byte(`{"ok":true}`))
	})

	if err := c.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if gotPath != "/botTOKEN/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPayload["chat_id"] != "42" || gotPayload["text"] != "hello" {
		t.Errorf("payload = %v", gotPayload)
	}
}

func TestSendReviewKeyboard(t *testing.T) {
	t.Parallel()

	var raw []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"ok":true}`))
	})

	cand := &article.Candidate{
		Category:   "science",
		Source:     "Quanta Magazine",
		URL:        "https://example.com/a",
		Headline:   "A <Bold> Claim",
		Teaser:     "Teaser.",
		WordCount:  1100,
		FinalScore: 4.54,
	}
	if err := c.SendReview(context.Background(), cand, 2); err != nil {
		t.Fatalf("SendReview: %v", err)
	}

	body := string(raw)
	for _, want := range []string{
		`"approve:science:2"`,
		`"reject:science:2"`,
		`"pick:science:2"`,
		"1100 words",
		"~5 min",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("request body missing %q", want)
		}
	}
	// Headline markup is escaped, not interpreted.
	if strings.Contains(body, "<Bold>") {
		t.Errorf("headline not escaped: %s", body)
	}
}

func TestGetUpdates(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getUpdates") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"text":"/review"}},
			{"update_id":8,"callback_query":{"id":"cb1","data":"approve:science:0"}}
		]}`))
	})

	updates, err := c.GetUpdates(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "/review" {
		t.Errorf("first update: %+v", updates[0])
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "approve:science:0" {
		t.Errorf("second update: %+v", updates[1])
	}
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	if err := c.SendMessage(context.Background(), "x"); err == nil {
		t.Fatal("SendMessage succeeded on 403")
	}
}

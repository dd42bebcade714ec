package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	g := NewRationaleGenerator("openai", "", "key", "", 20, 160)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"clean sentence passes",
			"A rare look at how attention shapes what we take to be real.",
			"A rare look at how attention shapes what we take to be real.",
		},
		{
			"quotes stripped",
			`"A rare look at how attention shapes what we take to be real."`,
			"A rare look at how attention shapes what we take to be real.",
		},
		{
			"prefix stripped",
			"Why it matters: attention quietly decides what counts as real for each of us.",
			"attention quietly decides what counts as real for each of us.",
		},
		{
			"first line only",
			"The clearest account yet of how memory loss reshapes identity.\nI hope that helps!",
			"The clearest account yet of how memory loss reshapes identity.",
		},
		{
			"code fence stripped",
			"```\nThe clearest account yet of how memory loss reshapes identity.\n```",
			"The clearest account yet of how memory loss reshapes identity.",
		},
		{
			"whitespace collapsed",
			"Too   many\tspaces between these perfectly reasonable words here.",
			"Too many spaces between these perfectly reasonable words here.",
		},
		{"too short discarded", "Nice piece.", ""},
		{"empty discarded", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.sanitize(tt.in); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateOpenAI(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{
					"content": "A rare look at how attention shapes what we take to be real.",
				}},
			},
		})
	}))
	defer srv.Close()

	g := NewRationaleGenerator("openai", "gpt-4o-mini", "secret", srv.URL, 20, 160)
	got, err := g.Generate(context.Background(), "On Attention", "Teaser.", "philosophy")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "A rare look at how attention shapes what we take to be real." {
		t.Errorf("Generate = %q", got)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestGenerateAnthropic(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"text": "The clearest account yet of how memory loss reshapes identity."},
			},
		})
	}))
	defer srv.Close()

	g := NewRationaleGenerator("anthropic", "", "secret", srv.URL, 20, 160)
	got, err := g.Generate(context.Background(), "On Memory", "Teaser.", "science")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "The clearest account yet of how memory loss reshapes identity." {
		t.Errorf("Generate = %q", got)
	}
}

func TestGenerateErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewRationaleGenerator("openai", "", "secret", srv.URL, 20, 160)
	if _, err := g.Generate(context.Background(), "H", "T", "science"); err == nil {
		t.Fatal("Generate succeeded on 429")
	}
}

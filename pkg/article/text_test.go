package article

import "testing"

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "A quiet revolution", "A quiet revolution"},
		{"tags stripped", "<p>The <em>mind</em> at work</p>", "The mind at work"},
		{"entities unescaped", "Fish &amp; chips &mdash; a history", "Fish & chips — a history"},
		{"whitespace collapsed", "too   many\n\t spaces ", "too many spaces"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateTeaser(t *testing.T) {
	t.Parallel()

	short := "Short enough already."
	if got := TruncateTeaser(short, 200); got != short {
		t.Errorf("short teaser changed: %q", got)
	}

	long := "The history of science is a history of instruments as much as ideas"
	got := TruncateTeaser(long, 30)
	if len(got) > 33 {
		t.Errorf("truncated teaser too long: %d chars", len(got))
	}
	if got[len(got)-3:] != "..." {
		t.Errorf("missing ellipsis: %q", got)
	}
	// Never cuts mid-word: everything before the marker must be a prefix
	// of the input ending at a space.
	body := got[:len(got)-3]
	if long[:len(body)] != body {
		t.Errorf("truncation altered text: %q", body)
	}
	if long[len(body)] != ' ' {
		t.Errorf("truncated mid-word: %q", got)
	}
}

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://www.quantamagazine.org/some-piece/", "quantamagazine.org"},
		{"https://aeon.co/essays/x", "aeon.co"},
		{"HTTPS://WWW.LRB.CO.UK/feed", "lrb.co.uk"},
		{"not a url", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDomain(tt.in); got != tt.want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package openai_responses

import "testing"

func TestSplitSummaryTitle(t *testing.T) {
	cases := []struct {
		name, in, title, body string
	}{
		{"bold title", "**Planning the search**\n\nI should look up the docs.", "Planning the search", "I should look up the docs."},
		{"inline body", "**Checking** the numbers  ", "Checking", "the numbers"},
		{"no title", "Just thinking out loud.", "Reasoning", "Just thinking out loud."},
		{"not at start", "Intro **Bold** later", "Reasoning", "Intro **Bold** later"},
		{"title padded", "** Spaced **\nbody", "Spaced", "body"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			title, body := SplitSummaryTitle(c.in, "Reasoning")
			if title != c.title {
				t.Fatalf("title: expected %q, got %q", c.title, title)
			}
			if body != c.body {
				t.Fatalf("body: expected %q, got %q", c.body, body)
			}
		})
	}
}

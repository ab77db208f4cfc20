package engine

import "testing"

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<i>italic</i> caption", "italic caption"},
		{"  plain  ", "plain"},
		{"<b>bold</b>", "bold"},
		{"no tags here", "no tags here"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanHTML(tt.in); got != tt.want {
			t.Errorf("CleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 5); got != "hello" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"one  two\nthree", "one two three"},
		{"\t leading and trailing \n", "leading and trailing"},
		{"already clean", "already clean"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CollapseSpaces(tt.in); got != tt.want {
			t.Errorf("CollapseSpaces(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

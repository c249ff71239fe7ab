package main

import "testing"

func TestComma(t *testing.T) {
	tests := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		-1500:    "-1,500",
		12345678: "12,345,678",
	}
	for in, want := range tests {
		if got := comma(in); got != want {
			t.Fatalf("comma(%d)=%q want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Indie Sparks", 20); got != "Indie Sparks" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("Adventure Quest", 6); got != "Adven…" {
		t.Fatalf("got %q", got)
	}
}

func TestIndexArg(t *testing.T) {
	if v, err := indexArg([]string{" 3 "}, 0, "project"); err != nil || v != 3 {
		t.Fatalf("got %d, %v", v, err)
	}
	for _, bad := range []string{"-1", "x", ""} {
		if _, err := indexArg([]string{bad}, 0, "project"); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

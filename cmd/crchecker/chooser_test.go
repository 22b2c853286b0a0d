package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPromptChooser(t *testing.T) {
	candidates := []string{"a.log", "b.log", "c.log"}
	tests := []struct {
		name    string
		input   string
		want    int
		invalid int
		wantErr bool
	}{
		{name: "first", input: "0\n", want: 0},
		{name: "last without newline", input: "2", want: 2},
		{name: "abort", input: "-1\n", want: -1},
		{name: "retry after garbage", input: "x\n\n3\n 1 \n", want: 1, invalid: 3},
		{name: "input closed", input: "9\n", invalid: 1, wantErr: true},
		{name: "empty input", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := newPromptChooser(strings.NewReader(tt.input), &out).Choose(context.Background(), candidates)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got choice %d", got)
				}
			} else {
				if err != nil {
					t.Fatalf("Choose: %v", err)
				}
				if got != tt.want {
					t.Fatalf("choice = %d, want %d", got, tt.want)
				}
			}
			if n := strings.Count(out.String(), "Invalid choice."); n != tt.invalid {
				t.Fatalf("invalid notices = %d, want %d\n%s", n, tt.invalid, out.String())
			}
		})
	}
}

func TestPromptChooserListing(t *testing.T) {
	var out bytes.Buffer
	if _, err := newPromptChooser(strings.NewReader("0\n"), &out).Choose(context.Background(), []string{"x.log", "y.log"}); err != nil {
		t.Fatal(err)
	}
	want := "Multiple log files were found:\n0. x.log\n1. y.log\nSelect the log file (-1 to exit): "
	if out.String() != want {
		t.Fatalf("prompt mismatch\n got: %q\nwant: %q", out.String(), want)
	}
}

func TestPromptChooserCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	if _, err := newPromptChooser(strings.NewReader("0\n"), &out).Choose(ctx, []string{"a", "b"}); err == nil {
		t.Fatal("expected canceled context to stop the prompt")
	}
}

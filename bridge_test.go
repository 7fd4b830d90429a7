package main

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
	"time"
)

type fakeRunner struct {
	mu       sync.Mutex
	commands []string
	reply    func(cmd string) (string, error)
}

func (f *fakeRunner) Execute(cmd string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	if f.reply != nil {
		return f.reply(cmd)
	}
	return "", nil
}

func (f *fakeRunner) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

type fakeChannel struct {
	inbound chan InboundMessage
	sent    chan MatchResult
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{inbound: make(chan InboundMessage, 4), sent: make(chan MatchResult, 4)}
}

func (c *fakeChannel) Name() string                    { return "fake" }
func (c *fakeChannel) Messages() <-chan InboundMessage { return c.inbound }
func (c *fakeChannel) Close() error                    { return nil }

func (c *fakeChannel) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (c *fakeChannel) Send(_ context.Context, r MatchResult) error {
	c.sent <- r
	return nil
}

func TestSayCommand(t *testing.T) {
	tests := []struct {
		msg  InboundMessage
		want string
	}{
		{InboundMessage{Source: "Discord", Author: "alice", Content: "gg"}, "say [Discord] alice: gg"},
		{InboundMessage{Source: "Discord", Author: "bob", Content: `hi; quit`}, "say [Discord] bob: hi quit"},
		{InboundMessage{Source: "Discord", Author: `ev"il;`, Content: "a \"quoted\"\nline"}, "say [Discord] ev'il: a 'quoted' line"},
	}
	for _, tt := range tests {
		if got := sayCommand(tt.msg); got != tt.want {
			t.Errorf("sayCommand(%+v) = %q, want %q", tt.msg, got, tt.want)
		}
	}

	long := sayCommand(InboundMessage{Source: "Discord", Author: "x", Content: strings.Repeat("a", 300)})
	if !strings.HasSuffix(long, strings.Repeat("a", 200)+"...") || strings.Contains(long, strings.Repeat("a", 201)) {
		t.Errorf("long message not truncated: %d chars", len(long))
	}
}

func TestSayCommandTruncatesOnRuneBoundary(t *testing.T) {
	for _, r := range []string{"é", "日", "🙂"} {
		got := sayCommand(InboundMessage{Source: "Discord", Author: "x", Content: strings.Repeat(r, 300)})
		if !utf8.ValidString(got) {
			t.Errorf("%q: command is not valid UTF-8: %q", r, got)
		}
		text := strings.TrimPrefix(got, "say [Discord] x: ")
		if want := strings.Repeat(r, 200) + "..."; text != want {
			t.Errorf("%q: kept %d runes, want 200", r, utf8.RuneCountInString(strings.TrimSuffix(text, "...")))
		}
	}
}

func TestBridgeSubscriberDropsWhenFull(t *testing.T) {
	b := NewBridge(nil, nil, testLogger())
	sub := b.Subscriber()

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(b.results)+5; i++ {
			sub.OnMatchEnd(MatchReport{Snapshot: NewSession("de_nuke"), Result: MatchResult{Map: "de_nuke"}})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("OnMatchEnd blocked on a full queue")
	}
	if len(b.results) != cap(b.results) {
		t.Errorf("queued = %d, want %d", len(b.results), cap(b.results))
	}
}

func TestBridgeFanOut(t *testing.T) {
	ch := newFakeChannel()
	b := NewBridge(nil, []Channel{ch}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.FanOut(ctx)

	want := MatchResult{Map: "de_mirage", Mode: "competitive", CTScore: 16, TScore: 14, Outcome: OutcomeCTWin}
	b.Subscriber().OnMatchEnd(MatchReport{Snapshot: NewSession("de_mirage"), Result: want})

	select {
	case got := <-ch.sent:
		if got != want {
			t.Errorf("sent %+v, want %+v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("result not delivered to channel")
	}
}

func TestBridgeHandleInbound(t *testing.T) {
	runner := &fakeRunner{}
	ch := newFakeChannel()
	b := NewBridge(runner, []Channel{ch}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.HandleInbound(ctx, ch)
		close(done)
	}()

	ch.inbound <- InboundMessage{Source: "Discord", Author: "alice", Content: "gl hf"}
	deadline := time.Now().Add(5 * time.Second)
	for len(runner.sent()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	if got := runner.sent(); len(got) != 1 || got[0] != "say [Discord] alice: gl hf" {
		t.Errorf("commands = %q", got)
	}
}

func TestBridgeHandleInboundWithoutRCON(t *testing.T) {
	ch := newFakeChannel()
	b := NewBridge(nil, []Channel{ch}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.HandleInbound(ctx, ch)
		close(done)
	}()

	ch.inbound <- InboundMessage{Source: "Discord", Author: "alice", Content: "dropped"}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("HandleInbound did not stop")
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// BridgeSubscriber forwards match results to the Bridge's result channel.
type BridgeSubscriber struct {
	results chan<- MatchResult
	logger  *slog.Logger
}

func (s *BridgeSubscriber) OnMatchEnd(report MatchReport) {
	select {
	case s.results <- report.Result:
	default:
		// Never block the engine loop on a slow chat platform.
		s.logger.Warn("bridge queue full, dropping match result", "map", report.Result.Map)
	}
}

// CommandRunner executes a console command on the game server.
type CommandRunner interface {
	Execute(cmd string) (string, error)
}

// Bridge fans match results out to all channels and relays inbound chat to the server.
type Bridge struct {
	rcon     CommandRunner // nil disables inbound relay
	channels []Channel
	results  chan MatchResult
	logger   *slog.Logger
}

func NewBridge(rcon CommandRunner, channels []Channel, logger *slog.Logger) *Bridge {
	return &Bridge{
		rcon:     rcon,
		channels: channels,
		results:  make(chan MatchResult, 16),
		logger:   logger,
	}
}

// Subscriber returns the MatchSubscriber that feeds this bridge.
func (b *Bridge) Subscriber() *BridgeSubscriber {
	return &BridgeSubscriber{results: b.results, logger: b.logger}
}

// FanOut reads match results and sends them to all channels.
func (b *Bridge) FanOut(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case result := <-b.results:
			for _, ch := range b.channels {
				if err := ch.Send(ctx, result); err != nil {
					b.logger.Warn("announce match result", "channel", ch.Name(), "err", err)
				}
			}
		}
	}
}

// HandleInbound reads messages from a channel and says them on the game server.
func (b *Bridge) HandleInbound(ctx context.Context, ch Channel) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch.Messages():
			if b.rcon == nil {
				continue
			}
			if _, err := b.rcon.Execute(sayCommand(msg)); err != nil {
				b.logger.Warn("relay chat to server", "source", msg.Source, "err", err)
			}
		}
	}
}

// sayCommand builds a console "say" for msg. Semicolons and quotes are
// stripped so a chat message cannot chain further console commands.
func sayCommand(msg InboundMessage) string {
	clean := strings.NewReplacer(";", "", `"`, "'", "\n", " ", "\r", " ")
	text := clean.Replace(msg.Content)
	if r := []rune(text); len(r) > 200 {
		text = string(r[:200]) + "..."
	}
	return fmt.Sprintf("say [%s] %s: %s", msg.Source, clean.Replace(msg.Author), text)
}

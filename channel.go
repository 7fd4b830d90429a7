package main

import "context"

// Channel abstracts an external chat platform that announces match results
// and may relay chat back into the server.
type Channel interface {
	Name() string
	Send(ctx context.Context, result MatchResult) error
	Messages() <-chan InboundMessage
	Start(ctx context.Context) error
	Close() error
}

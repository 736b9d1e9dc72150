package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type recordingNotifier struct {
	events []Event
	err    error
}

func (r *recordingNotifier) Send(_ context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestStreamNotifierAppendsEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	n := NewStreamNotifier(rdb)
	event := Event{
		Kind:          KindSwap,
		UserID:        "u1",
		TransactionID: "t1",
		FromSymbol:    "SOL",
		ToSymbol:      "USDC",
		FromAmount:    1,
		ToAmount:      98,
		USDValue:      98,
		At:            time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := n.Send(context.Background(), event); err != nil {
		t.Fatalf("send: %v", err)
	}

	entries, err := rdb.XRange(context.Background(), ActivityStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}
	values := entries[0].Values
	if values["kind"] != KindSwap || values["user_id"] != "u1" || values["to"] != "USDC" {
		t.Fatalf("unexpected entry %v", values)
	}
	if values["at"] != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected timestamp %v", values["at"])
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	first := &recordingNotifier{err: boom}
	second := &recordingNotifier{}

	err := Multi{first, nil, second}.Send(context.Background(), Event{Kind: KindDeposit})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("expected every notifier to receive the event")
	}
}

func TestLoggerNotifierNilSafe(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Event{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

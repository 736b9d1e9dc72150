package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aggregator-demo/aggregator/internal/ledger"
)

const (
	// KindDeposit indicates a completed mock deposit.
	KindDeposit = "deposit"
	// KindSwap indicates a completed swap.
	KindSwap = "swap"

	// ActivityStream is the Redis stream that receives wallet activity.
	ActivityStream = "stream:activity"

	streamMaxLen   = 10000
	publishTimeout = 2 * time.Second
)

// Event describes a completed wallet operation.
type Event struct {
	Kind          string
	UserID        string
	TransactionID string
	FromSymbol    string
	ToSymbol      string
	FromAmount    float64
	ToAmount      float64
	USDValue      float64
	At            time.Time
}

// FromTransaction describes a committed ledger transaction as an event.
func FromTransaction(kind string, txn ledger.Transaction) Event {
	return Event{
		Kind:          kind,
		UserID:        txn.UserID,
		TransactionID: txn.ID,
		FromSymbol:    txn.FromSymbol,
		ToSymbol:      txn.ToSymbol,
		FromAmount:    txn.FromAmount,
		ToAmount:      txn.ToAmount,
		USDValue:      txn.USDValue,
		At:            txn.CreatedAt,
	}
}

// Notifier delivers wallet events to downstream systems.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LoggerNotifier writes events to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the event to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, event Event) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.DebugContext(ctx, "wallet activity",
		slog.String("kind", event.Kind),
		slog.String("user_id", event.UserID),
		slog.String("transaction_id", event.TransactionID),
		slog.String("from", event.FromSymbol),
		slog.String("to", event.ToSymbol),
		slog.Float64("usd_value", event.USDValue),
	)
	return nil
}

// StreamNotifier appends events to a capped Redis stream so other processes
// can follow wallet activity.
type StreamNotifier struct {
	rdb    redis.UniversalClient
	stream string
}

// NewStreamNotifier builds a notifier writing to ActivityStream.
func NewStreamNotifier(rdb redis.UniversalClient) *StreamNotifier {
	return &StreamNotifier{rdb: rdb, stream: ActivityStream}
}

// Send appends the event to the stream.
func (n *StreamNotifier) Send(ctx context.Context, event Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return n.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"kind":           event.Kind,
			"user_id":        event.UserID,
			"transaction_id": event.TransactionID,
			"from":           event.FromSymbol,
			"to":             event.ToSymbol,
			"from_amount":    event.FromAmount,
			"to_amount":      event.ToAmount,
			"usd_value":      event.USDValue,
			"at":             at.Format(time.RFC3339Nano),
		},
	}).Err()
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

// Send delivers the event to each notifier in order.
func (m Multi) Send(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

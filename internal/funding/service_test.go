package funding

import (
	"context"
	"errors"
	"testing"

	"github.com/aggregator-demo/aggregator/internal/apperr"
	"github.com/aggregator-demo/aggregator/internal/catalog"
	"github.com/aggregator-demo/aggregator/internal/ledger"
	"github.com/aggregator-demo/aggregator/internal/notification"
	"github.com/aggregator-demo/aggregator/internal/wallet"
)

type recordingNotifier struct {
	events []notification.Event
}

func (n *recordingNotifier) Send(_ context.Context, e notification.Event) error {
	n.events = append(n.events, e)
	return nil
}

func newTestService(t *testing.T) (*Service, ledger.Store, *recordingNotifier) {
	t.Helper()
	store := ledger.NewInMemory()
	notifier := &recordingNotifier{}
	svc, err := NewService(store, wallet.NewService(store, catalog.Default(), nil), Options{Notifier: notifier})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store, notifier
}

func TestDepositRoundTrip(t *testing.T) {
	svc, store, notifier := newTestService(t)
	ctx := context.Background()
	ledger.SeedWallet(store, ledger.Wallet{UserID: "u1", TokenMint: catalog.MintSOL, TokenSymbol: "SOL", Balance: 1.5})

	result, err := svc.Deposit(ctx, DepositInput{UserID: "u1", TokenMint: catalog.MintSOL, Amount: 2.5})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if result.NewBalance != 4.0 || result.Symbol != "SOL" {
		t.Fatalf("expected SOL balance 4.0, got %+v", result)
	}

	w, _ := store.Wallet(ctx, "u1", catalog.MintSOL)
	if w.Balance != 4.0 {
		t.Fatalf("expected stored balance 4.0, got %v", w.Balance)
	}

	txns, _ := store.Transactions(ctx, ledger.TransactionFilter{UserID: "u1"})
	if len(txns) != 1 {
		t.Fatalf("expected exactly one transaction, got %d", len(txns))
	}
	txn := txns[0]
	if txn.FromSymbol != catalog.DepositSymbol || txn.FromMint != catalog.DepositMint || txn.ToSymbol != "SOL" || txn.ToAmount != 2.5 {
		t.Fatalf("unexpected deposit record %+v", txn)
	}
	if txn.USDValue != 2.5*98 || txn.Fee != 0 || txn.Slippage != 0 || txn.Status != ledger.StatusCompleted {
		t.Fatalf("unexpected deposit economics %+v", txn)
	}
	if len(notifier.events) != 1 || notifier.events[0].Kind != notification.KindDeposit {
		t.Fatalf("expected one deposit notification, got %+v", notifier.events)
	}
}

func TestDepositCreatesWallet(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, DepositInput{UserID: "u1", TokenMint: catalog.MintJUP, Amount: 3}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	w, err := store.Wallet(ctx, "u1", catalog.MintJUP)
	if err != nil || w.Balance != 3 || w.TokenName != "Jupiter" {
		t.Fatalf("expected new JUP wallet with 3, got %+v err=%v", w, err)
	}
}

func TestDepositValidation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	cases := []DepositInput{
		{UserID: "u1", TokenMint: catalog.MintSOL, Amount: 0},
		{UserID: "u1", TokenMint: catalog.MintSOL, Amount: -1},
		{UserID: "u1", TokenMint: "", Amount: 1},
		{UserID: "u1", TokenMint: "unknown-mint", Amount: 1},
	}
	for _, in := range cases {
		if _, err := svc.Deposit(ctx, in); !errors.Is(err, apperr.ErrInvalidRequest) {
			t.Fatalf("expected invalid request for %+v, got %v", in, err)
		}
	}

	txns, _ := store.Transactions(ctx, ledger.TransactionFilter{})
	if len(txns) != 0 {
		t.Fatalf("expected no transactions, got %d", len(txns))
	}
}

func TestDepositIsAtomic(t *testing.T) {
	svc, store, notifier := newTestService(t)
	ctx := context.Background()
	ledger.SeedWallet(store, ledger.Wallet{UserID: "u1", TokenMint: catalog.MintSOL, TokenSymbol: "SOL", Balance: 1.5})

	boom := errors.New("disk full")
	ledger.FailNextAppend(store, boom)

	if _, err := svc.Deposit(ctx, DepositInput{UserID: "u1", TokenMint: catalog.MintSOL, Amount: 2.5}); !errors.Is(err, boom) {
		t.Fatalf("expected append failure, got %v", err)
	}
	w, _ := store.Wallet(ctx, "u1", catalog.MintSOL)
	if w.Balance != 1.5 {
		t.Fatalf("expected balance rolled back to 1.5, got %v", w.Balance)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notification on failure")
	}
}

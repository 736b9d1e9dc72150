package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type walletKey struct {
	userID string
	mint   string
}

type inMemoryStore struct {
	mu           sync.RWMutex
	wallets      map[string]Wallet
	byOwner      map[walletKey]string
	transactions []Transaction

	// failAppend, when set, is returned by the next AppendTransaction call.
	failAppend error
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit tests
// and development runs without Postgres.
func NewInMemory() Store {
	return &inMemoryStore{
		wallets: make(map[string]Wallet),
		byOwner: make(map[walletKey]string),
	}
}

// WithinTx serializes units of work and stages their writes, publishing them
// only when fn succeeds.
func (s *inMemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &memTx{
		store:   s,
		wallets: make(map[string]Wallet, len(s.wallets)),
		byOwner: make(map[walletKey]string, len(s.byOwner)),
	}
	for id, w := range s.wallets {
		staged.wallets[id] = w
	}
	for k, id := range s.byOwner {
		staged.byOwner[k] = id
	}

	if err := fn(ctx, staged); err != nil {
		return err
	}

	s.wallets = staged.wallets
	s.byOwner = staged.byOwner
	s.transactions = append(s.transactions, staged.appended...)
	return nil
}

func (s *inMemoryStore) Wallet(_ context.Context, userID, mint string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byOwner[walletKey{userID: userID, mint: mint}]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return s.wallets[id], nil
}

func (s *inMemoryStore) Wallets(_ context.Context, userID string) ([]Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Wallet
	for _, w := range s.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].TokenSymbol < out[j].TokenSymbol
	})
	return out, nil
}

func (s *inMemoryStore) Transactions(_ context.Context, filter TransactionFilter) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for _, t := range s.transactions {
		if filter.UserID != "" && t.UserID != filter.UserID {
			continue
		}
		if !filter.Since.IsZero() && t.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type memTx struct {
	store    *inMemoryStore
	wallets  map[string]Wallet
	byOwner  map[walletKey]string
	appended []Transaction
}

func (t *memTx) FindWallet(_ context.Context, userID, mint string) (Wallet, error) {
	id, ok := t.byOwner[walletKey{userID: userID, mint: mint}]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return t.wallets[id], nil
}

func (t *memTx) CreateWallet(_ context.Context, w Wallet) (Wallet, error) {
	key := walletKey{userID: w.UserID, mint: w.TokenMint}
	if _, exists := t.byOwner[key]; exists {
		return Wallet{}, ErrWalletExists
	}
	w.ID = uuid.NewString()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	t.wallets[w.ID] = w
	t.byOwner[key] = w.ID
	return w, nil
}

func (t *memTx) SetBalance(_ context.Context, walletID string, balance float64) error {
	w, ok := t.wallets[walletID]
	if !ok {
		return ErrWalletNotFound
	}
	w.Balance = balance
	t.wallets[walletID] = w
	return nil
}

func (t *memTx) AppendTransaction(_ context.Context, txn Transaction) (Transaction, error) {
	if err := t.store.failAppend; err != nil {
		t.store.failAppend = nil
		return Transaction{}, err
	}
	txn.ID = uuid.NewString()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if txn.Status == "" {
		txn.Status = StatusCompleted
	}
	t.appended = append(t.appended, txn)
	return txn, nil
}

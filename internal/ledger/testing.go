package ledger

import "context"

// SeedWallet is a test helper that writes a wallet with the given balance into the
// in-memory store, replacing the balance if the wallet already exists.
func SeedWallet(s Store, w Wallet) Wallet {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return Wallet{}
	}
	var out Wallet
	_ = mem.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		existing, err := tx.FindWallet(ctx, w.UserID, w.TokenMint)
		if err == nil {
			existing.Balance = w.Balance
			out = existing
			return tx.SetBalance(ctx, existing.ID, w.Balance)
		}
		out, err = tx.CreateWallet(ctx, w)
		return err
	})
	return out
}

// FailNextAppend makes the next AppendTransaction on the in-memory store return err.
func FailNextAppend(s Store, err error) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.failAppend = err
	}
}

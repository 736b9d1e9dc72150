package ledger

import "time"

// TransactionView is the JSON shape of a transaction returned to API callers.
type TransactionView struct {
	ID         string    `json:"id"`
	FromToken  string    `json:"fromToken"`
	ToToken    string    `json:"toToken"`
	FromAmount float64   `json:"fromAmount"`
	ToAmount   float64   `json:"toAmount"`
	Rate       float64   `json:"rate"`
	Fee        float64   `json:"fee"`
	Slippage   float64   `json:"slippage"`
	USDValue   float64   `json:"usdValue"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// View converts t into its API representation.
func (t Transaction) View() TransactionView {
	return TransactionView{
		ID:         t.ID,
		FromToken:  t.FromSymbol,
		ToToken:    t.ToSymbol,
		FromAmount: t.FromAmount,
		ToAmount:   t.ToAmount,
		Rate:       t.Rate,
		Fee:        t.Fee,
		Slippage:   t.Slippage,
		USDValue:   t.USDValue,
		Status:     t.Status,
		CreatedAt:  t.CreatedAt,
	}
}

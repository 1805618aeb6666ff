package core

// TransactionFilter narrows a transaction list. Zero-valued fields mean
// "all": an empty filter is the identity transform. Date bounds are
// inclusive and compared at day granularity.
type TransactionFilter struct {
	Type     TransactionType
	Category string
	From     *Date
	To       *Date
}

// IsZero reports whether the filter matches every transaction.
func (f TransactionFilter) IsZero() bool {
	return f.Type == "" && f.Category == "" && f.From == nil && f.To == nil
}

// Matches reports whether a single transaction passes the filter.
func (f TransactionFilter) Matches(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.From != nil && !t.Date.OnOrAfter(*f.From) {
		return false
	}
	if f.To != nil && !t.Date.OnOrBefore(*f.To) {
		return false
	}
	return true
}

// FilterTransactions returns the sublist passing the filter, preserving the
// input order. The input is never mutated; the result is always a fresh
// slice, even for the identity filter.
func FilterTransactions(txs []Transaction, f TransactionFilter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

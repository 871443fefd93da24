package domain

// LedgerStore is the persistence boundary for the append-only order
// ledger. Implementations must preserve insertion order: All returns
// records sorted by OrderID ascending.
type LedgerStore interface {
	Append(record OrderRecord) (OrderRecord, error)
	AppendAll(records []OrderRecord) ([]OrderRecord, error)
	All() ([]OrderRecord, error)
	UpdateStatus(orderID int64, status OrderStatus) error
	Count() (int, error)
}

// PriceProvider supplies current market prices for a set of symbols.
// Missing symbols are simply absent from the returned map.
type PriceProvider interface {
	Prices(symbols []string) (PriceMap, error)
}

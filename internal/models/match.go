package models

import (
	"github.com/shopspring/decimal"
)

// Result of a reconciliation run returned by the external matching engine.
// This service only proxies it, the payload is owned by the matcher
type MatchReport struct {
	Matched   []MatchedTransaction `json:"matched"`
	Unmatched []MatchedTransaction `json:"unmatched"`
}

type MatchedTransaction struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date,omitempty"`
	Status    string          `json:"status,omitempty"`
}

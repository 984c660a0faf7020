package crowdsale

import "math/big"

// SaleState is the singleton aggregate record for the sale: activation flags,
// window timestamps, the current rate and monotonic totals.
type SaleState struct {
	Active       bool
	Ended        bool
	StartTime    int64
	EndTime      int64
	Rate         uint64
	TotalRaised  *big.Int
	TotalSold    *big.Int
	Participants uint64
}

// Normalize replaces nil totals with zero and defaults the rate.
func (s *SaleState) Normalize() *SaleState {
	if s == nil {
		return (&SaleState{Rate: DefaultRate}).Normalize()
	}
	if s.Rate == 0 {
		s.Rate = DefaultRate
	}
	if s.TotalRaised == nil {
		s.TotalRaised = big.NewInt(0)
	}
	if s.TotalSold == nil {
		s.TotalSold = big.NewInt(0)
	}
	return s
}

// Clone returns a deep copy.
func (s *SaleState) Clone() *SaleState {
	if s == nil {
		return (&SaleState{}).Normalize()
	}
	clone := *s
	clone.TotalRaised = new(big.Int).Set(s.Normalize().TotalRaised)
	clone.TotalSold = new(big.Int).Set(s.TotalSold)
	return &clone
}

// PurchaseRecord accumulates one account's participation. Created on first
// purchase and only ever grows.
type PurchaseRecord struct {
	PaymentContributed *big.Int
	SaleReceived       *big.Int
	Participated       bool
}

// Normalize replaces nil amounts with zero.
func (r *PurchaseRecord) Normalize() *PurchaseRecord {
	if r == nil {
		return (&PurchaseRecord{}).Normalize()
	}
	if r.PaymentContributed == nil {
		r.PaymentContributed = big.NewInt(0)
	}
	if r.SaleReceived == nil {
		r.SaleReceived = big.NewInt(0)
	}
	return r
}

// Clone returns a deep copy.
func (r *PurchaseRecord) Clone() *PurchaseRecord {
	if r == nil {
		return (&PurchaseRecord{}).Normalize()
	}
	clone := *r
	clone.PaymentContributed = new(big.Int).Set(r.Normalize().PaymentContributed)
	clone.SaleReceived = new(big.Int).Set(r.SaleReceived)
	return &clone
}

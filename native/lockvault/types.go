package lockvault

import "math/big"

// ScheduleStatus is derived from a schedule's claimed amount and the current
// time. Transitions are monotonic: Pending -> Unlocked -> Claimed.
type ScheduleStatus uint8

const (
	SchedulePending ScheduleStatus = iota
	ScheduleUnlocked
	ScheduleClaimed
)

func (s ScheduleStatus) String() string {
	switch s {
	case SchedulePending:
		return "pending"
	case ScheduleUnlocked:
		return "unlocked"
	case ScheduleClaimed:
		return "claimed"
	default:
		return "unknown"
	}
}

// Schedule is one lock-and-release record, created per purchase. Amount,
// Start and Unlock are immutable after creation; only Claimed moves, and only
// upward.
type Schedule struct {
	Amount  *big.Int
	Start   int64
	Unlock  int64
	Claimed *big.Int
}

// Normalize replaces nil big.Int fields with zero.
func (s *Schedule) Normalize() *Schedule {
	if s.Amount == nil {
		s.Amount = big.NewInt(0)
	}
	if s.Claimed == nil {
		s.Claimed = big.NewInt(0)
	}
	return s
}

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	out := s
	if s.Amount != nil {
		out.Amount = new(big.Int).Set(s.Amount)
	} else {
		out.Amount = big.NewInt(0)
	}
	if s.Claimed != nil {
		out.Claimed = new(big.Int).Set(s.Claimed)
	} else {
		out.Claimed = big.NewInt(0)
	}
	return out
}

// Remaining returns the unclaimed portion of the schedule.
func (s Schedule) Remaining() *big.Int {
	amount := s.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	claimed := s.Claimed
	if claimed == nil {
		claimed = big.NewInt(0)
	}
	remaining := new(big.Int).Sub(amount, claimed)
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}

// Status reports the schedule's lifecycle state at the given time.
func (s Schedule) Status(now int64) ScheduleStatus {
	if s.Remaining().Sign() == 0 {
		return ScheduleClaimed
	}
	if now < s.Unlock {
		return SchedulePending
	}
	return ScheduleUnlocked
}

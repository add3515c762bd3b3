package proposal

import (
	"math/big"

	"github.com/icon-project/governance/types"
	"github.com/shopspring/decimal"
)

// Threshold is one side of a ballot decision. The count condition is the
// ratio Voters/Committee scaled to the number of eligible voters; with
// Committee zero, Voters is an absolute ballot count instead.
type Threshold struct {
	Voters    uint64
	Committee uint64
	StakeRate decimal.Decimal
}

type Policy struct {
	Approve    Threshold
	Disapprove Threshold
	Inclusive  bool
}

func DefaultPolicy() Policy {
	return Policy{
		Approve: Threshold{
			Voters:    15,
			Committee: 22,
			StakeRate: decimal.RequireFromString("0.66"),
		},
		Disapprove: Threshold{
			Voters:    8,
			Committee: 22,
			StakeRate: decimal.RequireFromString("0.33"),
		},
		Inclusive: true,
	}
}

// Tally is the ballot count and accumulated stake of one vote bucket.
type Tally struct {
	Count  uint64
	Amount *big.Int
}

func TallyOf(b *types.VoteBucket) Tally {
	return Tally{Count: uint64(b.Count()), Amount: b.Amount}
}

// Decide reports whether the bucket of voteType has crossed its threshold.
func (p Policy) Decide(voteType types.VoteType, t Tally, totalVoter uint64, totalDelegated *big.Int) bool {
	th := p.Disapprove
	if voteType == types.VoteAgree {
		th = p.Approve
	}
	return p.countMet(th, t.Count, totalVoter) && p.stakeMet(th, t.Amount, totalDelegated)
}

func (p Policy) countMet(th Threshold, count, totalVoter uint64) bool {
	var lhs, rhs *big.Int
	if th.Committee == 0 {
		lhs = new(big.Int).SetUint64(count)
		rhs = new(big.Int).SetUint64(th.Voters)
	} else {
		if totalVoter == 0 {
			return false
		}
		lhs = new(big.Int).Mul(new(big.Int).SetUint64(count), new(big.Int).SetUint64(th.Committee))
		rhs = new(big.Int).Mul(new(big.Int).SetUint64(th.Voters), new(big.Int).SetUint64(totalVoter))
	}
	return p.compare(decimal.NewFromBigInt(lhs, 0), decimal.NewFromBigInt(rhs, 0))
}

func (p Policy) stakeMet(th Threshold, amount, totalDelegated *big.Int) bool {
	if amount == nil || totalDelegated == nil || totalDelegated.Sign() <= 0 {
		return false
	}
	required := decimal.NewFromBigInt(totalDelegated, 0).Mul(th.StakeRate)
	return p.compare(decimal.NewFromBigInt(amount, 0), required)
}

func (p Policy) compare(value, threshold decimal.Decimal) bool {
	if p.Inclusive {
		return value.GreaterThanOrEqual(threshold)
	}
	return value.GreaterThan(threshold)
}

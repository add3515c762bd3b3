package proposal

import (
	"math/big"
	"testing"

	"github.com/icon-project/governance/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPolicyDecide(t *testing.T) {
	policy := DefaultPolicy()
	cases := []struct {
		name       string
		vote       types.VoteType
		count      uint64
		amount     int64
		totalVoter uint64
		total      int64
		want       bool
	}{
		{"agree 14 of 22 at 66%", types.VoteAgree, 14, 66, 22, 100, false},
		{"agree 15 of 22 at 65%", types.VoteAgree, 15, 65, 22, 100, false},
		{"agree 15 of 22 at 66%", types.VoteAgree, 15, 66, 22, 100, true},
		{"agree 22 of 22 at 100%", types.VoteAgree, 22, 100, 22, 100, true},
		{"disagree 7 of 22 at 33%", types.VoteDisagree, 7, 33, 22, 100, false},
		{"disagree 8 of 22 at 32%", types.VoteDisagree, 8, 32, 22, 100, false},
		{"disagree 8 of 22 at 33%", types.VoteDisagree, 8, 33, 22, 100, true},
		{"agree 3 of 4", types.VoteAgree, 3, 75, 4, 100, true},
		{"agree 2 of 4", types.VoteAgree, 2, 66, 4, 100, false},
		{"agree 1 of 4", types.VoteAgree, 1, 25, 4, 100, false},
		{"disagree 2 of 4 at 33%", types.VoteDisagree, 2, 33, 4, 100, true},
		{"disagree 2 of 4 at 32%", types.VoteDisagree, 2, 32, 4, 100, false},
		{"disagree 1 of 4 at 50%", types.VoteDisagree, 1, 50, 4, 100, false},
		{"zero delegated", types.VoteAgree, 22, 0, 22, 0, false},
		{"zero voters", types.VoteAgree, 0, 0, 0, 100, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tally := Tally{Count: c.count, Amount: big.NewInt(c.amount)}
			got := policy.Decide(c.vote, tally, c.totalVoter, big.NewInt(c.total))
			assert.Equal(t, c.want, got)
		})
	}
}

func TestPolicyStrict(t *testing.T) {
	policy := DefaultPolicy()
	policy.Inclusive = false

	tally := Tally{Count: 15, Amount: big.NewInt(66)}
	assert.False(t, policy.Decide(types.VoteAgree, tally, 22, big.NewInt(100)))

	tally = Tally{Count: 16, Amount: big.NewInt(67)}
	assert.True(t, policy.Decide(types.VoteAgree, tally, 22, big.NewInt(100)))
}

func TestPolicyAbsoluteCount(t *testing.T) {
	policy := Policy{
		Approve:    Threshold{Voters: 15, StakeRate: decimal.RequireFromString("0.66")},
		Disapprove: Threshold{Voters: 8, StakeRate: decimal.RequireFromString("0.33")},
		Inclusive:  true,
	}
	// the absolute regime ignores the committee size
	assert.False(t, policy.Decide(types.VoteAgree, Tally{Count: 3, Amount: big.NewInt(75)}, 4, big.NewInt(100)))
	assert.True(t, policy.Decide(types.VoteAgree, Tally{Count: 15, Amount: big.NewInt(66)}, 30, big.NewInt(100)))
	assert.True(t, policy.Decide(types.VoteDisagree, Tally{Count: 8, Amount: big.NewInt(33)}, 30, big.NewInt(100)))
}

func TestPolicyLargeStake(t *testing.T) {
	policy := DefaultPolicy()
	total, _ := new(big.Int).SetString("1000000000000000000000000000", 10)
	amount, _ := new(big.Int).SetString("660000000000000000000000000", 10)
	below := new(big.Int).Sub(amount, big.NewInt(1))

	assert.True(t, policy.Decide(types.VoteAgree, Tally{Count: 15, Amount: amount}, 22, total))
	assert.False(t, policy.Decide(types.VoteAgree, Tally{Count: 15, Amount: below}, 22, total))
}

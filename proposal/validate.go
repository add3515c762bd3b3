package proposal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/icon-project/governance/types"
)

// Network answers the live lookups made while validating a proposal value.
type Network interface {
	IsContract(addr cmtcrypto.Address) bool
	IsPRep(addr cmtcrypto.Address) bool
	StepPrice() *big.Int
	CheckIrep(irep *big.Int) error
}

var StepCostNames = []string{
	"schema", "default", "input",
	"contractCall", "contractCreate", "contractUpdate", "contractDestruct", "contractSet",
	"get", "set", "replace", "delete",
	"eventLog", "apiCall",
	"getBase", "setBase", "deleteBase", "logBase", "log",
}

var RewardFundAllocationKeys = []string{"iprep", "icps", "irelay", "ivoter"}

var (
	errMissingKey         = errors.New("missing key")
	errNetworkUnavailable = errors.New("network unavailable")
)

// ValidateValue checks value against the schema and policy of proposal type t.
// It never panics; any failure is reported as ErrValidationFailed.
func ValidateValue(t types.ProposalType, value types.ProposalValue, nw Network) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrValidationFailed, t, r)
		}
	}()
	if value == nil {
		return fmt.Errorf("%w: %s: empty value", ErrValidationFailed, t)
	}
	var reason error
	switch t {
	case types.ProposalTypeText:
		reason = validateText(value)
	case types.ProposalTypeRevision:
		reason = validateRevision(value)
	case types.ProposalTypeMaliciousScore:
		reason = validateMaliciousScore(value, nw)
	case types.ProposalTypePRepDisqualification:
		reason = validatePRepDisqualification(value, nw)
	case types.ProposalTypeStepPrice:
		reason = validateStepPrice(value, nw)
	case types.ProposalTypeIrep:
		reason = validateIrep(value, nw)
	case types.ProposalTypeStepCosts:
		reason = validateStepCosts(value)
	case types.ProposalTypeRewardFundSetting:
		reason = validateRewardFundSetting(value)
	case types.ProposalTypeRewardFundAllocation:
		reason = validateRewardFundAllocation(value)
	default:
		reason = errors.New("unknown proposal type")
	}
	if reason != nil {
		return fmt.Errorf("%w: %s: %v", ErrValidationFailed, t, reason)
	}
	return nil
}

func validateText(value types.ProposalValue) error {
	if _, ok := value["value"].(string); !ok {
		return fmt.Errorf("%w: value", errMissingKey)
	}
	return nil
}

func validateRevision(value types.ProposalValue) error {
	if _, err := intField(value, "code"); err != nil {
		return err
	}
	if _, ok := value["name"].(string); !ok {
		return fmt.Errorf("%w: name", errMissingKey)
	}
	return nil
}

func validateMaliciousScore(value types.ProposalValue, nw Network) error {
	if nw == nil {
		return errNetworkUnavailable
	}
	addr, err := ParseAddress(value["address"])
	if err != nil {
		return err
	}
	if !nw.IsContract(addr) {
		return fmt.Errorf("%v is not a contract", addr)
	}
	typ, err := intField(value, "type")
	if err != nil {
		return err
	}
	if !typ.IsUint64() || typ.Uint64() > uint64(types.MaliciousScoreUnfreeze) {
		return fmt.Errorf("invalid malicious score type %v", typ)
	}
	return nil
}

func validatePRepDisqualification(value types.ProposalValue, nw Network) error {
	if nw == nil {
		return errNetworkUnavailable
	}
	addr, err := ParseAddress(value["address"])
	if err != nil {
		return err
	}
	if !nw.IsPRep(addr) {
		return fmt.Errorf("%v is not a main or sub prep", addr)
	}
	return nil
}

func validateStepPrice(value types.ProposalValue, nw Network) error {
	if nw == nil {
		return errNetworkUnavailable
	}
	v, err := intField(value, "value")
	if err != nil {
		return err
	}
	price := nw.StepPrice()
	if price == nil {
		return errors.New("step price not set")
	}
	lower := new(big.Int).Div(new(big.Int).Mul(price, big.NewInt(75)), big.NewInt(100))
	upper := new(big.Int).Div(new(big.Int).Mul(price, big.NewInt(125)), big.NewInt(100))
	if v.Cmp(lower) < 0 || v.Cmp(upper) > 0 {
		return fmt.Errorf("step price %v out of range [%v, %v]", v, lower, upper)
	}
	return nil
}

func validateIrep(value types.ProposalValue, nw Network) error {
	if nw == nil {
		return errNetworkUnavailable
	}
	v, err := intField(value, "value")
	if err != nil {
		return err
	}
	return nw.CheckIrep(v)
}

func validateStepCosts(value types.ProposalValue) error {
	costs, ok := value["costs"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: costs", errMissingKey)
	}
	if len(costs) == 0 {
		return errors.New("empty costs")
	}
	allowed := make(map[string]struct{}, len(StepCostNames))
	for _, name := range StepCostNames {
		allowed[name] = struct{}{}
	}
	for name, cost := range costs {
		if _, ok := allowed[name]; !ok {
			return fmt.Errorf("invalid step cost type %q", name)
		}
		if _, err := ParseInt(cost); err != nil {
			return fmt.Errorf("step cost %s: %w", name, err)
		}
	}
	return nil
}

func validateRewardFundSetting(value types.ProposalValue) error {
	v, err := intField(value, "iglobal")
	if err != nil {
		return err
	}
	if v.Sign() < 0 {
		return fmt.Errorf("negative iglobal %v", v)
	}
	return nil
}

func validateRewardFundAllocation(value types.ProposalValue) error {
	sum := new(big.Int)
	for _, key := range RewardFundAllocationKeys {
		v, err := intField(value, key)
		if err != nil {
			return err
		}
		if v.Sign() < 0 {
			return fmt.Errorf("negative %s %v", key, v)
		}
		sum.Add(sum, v)
	}
	if sum.Cmp(big.NewInt(100)) != 0 {
		return fmt.Errorf("allocation sum %v is not 100", sum)
	}
	return nil
}

func intField(value types.ProposalValue, key string) (*big.Int, error) {
	raw, ok := value[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errMissingKey, key)
	}
	v, err := ParseInt(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// ParseInt reads an integer from a payload value. Strings may be 0x prefixed
// hex or decimal, with an optional leading minus sign.
func ParseInt(raw any) (*big.Int, error) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		neg := strings.HasPrefix(s, "-")
		if neg {
			s = s[1:]
		}
		if s == "" {
			return nil, errors.New("empty integer")
		}
		if strings.ContainsAny(s, "+-") {
			return nil, fmt.Errorf("invalid integer %q", v)
		}
		n, ok := math.ParseBig256(s)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", v)
		}
		if neg {
			n.Neg(n)
		}
		return n, nil
	case json.Number:
		return ParseInt(v.String())
	case float64:
		n, acc := big.NewFloat(v).Int(nil)
		if acc != big.Exact {
			return nil, fmt.Errorf("not an integer %v", v)
		}
		return n, nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case *big.Int:
		if v == nil {
			return nil, errors.New("nil integer")
		}
		return new(big.Int).Set(v), nil
	}
	return nil, fmt.Errorf("unexpected integer type %T", raw)
}

// ParseAddress reads a 20 byte hex address, with or without 0x prefix.
func ParseAddress(raw any) (cmtcrypto.Address, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: address", errMissingKey)
	}
	if !common.IsHexAddress(s) {
		return nil, fmt.Errorf("invalid address %q", s)
	}
	return cmtcrypto.Address(common.HexToAddress(s).Bytes()), nil
}

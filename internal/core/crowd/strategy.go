package crowd

import (
	"fmt"
	"strings"
)

// Strategy is the steering policy turning the direction towards a target into
// a bounded displacement.
type Strategy uint8

const (
	// StrategyInherit defers to the room's active strategy.
	StrategyInherit Strategy = iota
	// StrategyDirect moves straight towards the target, ignoring everything.
	StrategyDirect
	// StrategyHardStop moves straight but stops at contact with other agents.
	StrategyHardStop
	// StrategyLateralDeviation sidesteps agents in contact and stops at
	// obstacle edges and agent contacts.
	StrategyLateralDeviation
)

var strategyNames = map[Strategy]string{
	StrategyInherit:          "inherit",
	StrategyDirect:           "direct",
	StrategyHardStop:         "hard-stop",
	StrategyLateralDeviation: "deviation",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// ParseStrategy accepts the canonical names plus the option values of the
// original strategy selector ("none", "simple", "deviation").
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inherit", "":
		return StrategyInherit, nil
	case "direct", "none":
		return StrategyDirect, nil
	case "hard-stop", "hardstop", "simple", "collision":
		return StrategyHardStop, nil
	case "deviation", "lateral", "lateral-deviation":
		return StrategyLateralDeviation, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	if _, ok := strategyNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

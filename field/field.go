// Package field decodes the match-start field configuration: which side of the field the
// robot starts on and which side of each scoring target belongs to its alliance.
package field

import (
	"strings"

	"github.com/pkg/errors"
)

// Side is a position across the width of the field, as seen from the alliance station.
type Side int

// The known sides. Unknown is the zero value so that an unset Side never looks valid.
const (
	Unknown Side = iota
	Left
	Right
	Center
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	case Center:
		return "center"
	case Unknown:
		return "unknown"
	}
	return "unknown"
}

// Opposite swaps Left and Right. Other sides are returned unchanged.
func (s Side) Opposite() Side {
	switch s {
	case Left:
		return Right
	case Right:
		return Left
	case Unknown, Center:
	}
	return s
}

// Lateral reports whether s is Left or Right.
func (s Side) Lateral() bool {
	return s == Left || s == Right
}

// ParseSide parses a side name. Single letters are accepted and case is ignored.
func ParseSide(str string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "center", "centre", "c":
		return Center, nil
	case "unknown", "":
		return Unknown, nil
	}
	return Unknown, errors.Errorf("unknown field side %q", str)
}

// MarshalText encodes the side as its name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a side name.
func (s *Side) UnmarshalText(text []byte) error {
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// Target is a scoring element whose alliance side is assigned at match start.
type Target int

// The targets named by the game message, nearest first.
const (
	Switch Target = iota
	Scale
)

func (t Target) String() string {
	if t == Scale {
		return "scale"
	}
	return "switch"
}

// ParseTarget parses a target name.
func ParseTarget(str string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "switch":
		return Switch, nil
	case "scale":
		return Scale, nil
	}
	return Switch, errors.Errorf("unknown field target %q", str)
}

// DefaultPriority is the order targets are tried in when choosing a routine.
var DefaultPriority = []Target{Switch, Scale}

// Config is the side assignment of the three targets, as seen from the alliance station.
type Config struct {
	NearSwitch Side
	Scale      Side
	FarSwitch  Side
}

// UnknownConfig is the result of decoding an unusable game message.
var UnknownConfig = Config{}

// ParseGameMessage decodes a game message such as "LRL". The message must be three letters,
// each L or R, and the two switches must share a side. Anything else decodes to
// UnknownConfig; it is never an error.
func ParseGameMessage(msg string) Config {
	msg = strings.ToUpper(strings.TrimSpace(msg))
	if len(msg) != 3 {
		return UnknownConfig
	}
	sides := make([]Side, 0, 3)
	for _, c := range msg {
		switch c {
		case 'L':
			sides = append(sides, Left)
		case 'R':
			sides = append(sides, Right)
		default:
			return UnknownConfig
		}
	}
	if sides[0] != sides[2] {
		return UnknownConfig
	}
	return Config{NearSwitch: sides[0], Scale: sides[1], FarSwitch: sides[2]}
}

// Known reports whether every target has a lateral side.
func (c Config) Known() bool {
	return c.NearSwitch.Lateral() && c.Scale.Lateral() && c.FarSwitch.Lateral()
}

// Side returns the side of target t that belongs to the robot's alliance.
func (c Config) Side(t Target) Side {
	if t == Scale {
		return c.Scale
	}
	return c.NearSwitch
}

// String renders a known config back into its game message.
func (c Config) String() string {
	if !c.Known() {
		return "unknown"
	}
	letter := func(s Side) string { return strings.ToUpper(s.String()[:1]) }
	return letter(c.NearSwitch) + letter(c.Scale) + letter(c.FarSwitch)
}

package domain

import (
	"fmt"
	"strings"
)

// AngleUnit selects how trigonometric functions interpret angles.
type AngleUnit string

const (
	Degrees AngleUnit = "degrees"
	Radians AngleUnit = "radians"
)

// ParseAngleUnit accepts "deg", "degrees", "rad" or "radians" (case-insensitive).
func ParseAngleUnit(s string) (AngleUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deg", "degree", "degrees":
		return Degrees, nil
	case "rad", "radian", "radians":
		return Radians, nil
	}
	return "", fmt.Errorf("unknown angle unit %q", s)
}

// Mode is the display configuration that parameterizes evaluation and formatting.
// The three flags are independent.
type Mode struct {
	Angle    AngleUnit `json:"angle" yaml:"angle" mapstructure:"angle"`
	Rational bool      `json:"rational" yaml:"rational" mapstructure:"rational"`
	Pi       bool      `json:"pi" yaml:"pi" mapstructure:"pi"`
}

// DefaultMode is degrees, decimal display and π formatting on.
func DefaultMode() Mode {
	return Mode{Angle: Degrees, Rational: false, Pi: true}
}

// Normalize fills a zero AngleUnit with Degrees.
func (m Mode) Normalize() Mode {
	if m.Angle != Radians {
		m.Angle = Degrees
	}
	return m
}

// ToggleAngleUnit flips between degrees and radians.
func (m Mode) ToggleAngleUnit() Mode {
	if m.Angle == Radians {
		m.Angle = Degrees
	} else {
		m.Angle = Radians
	}
	return m
}

// ToggleRational flips rational display.
func (m Mode) ToggleRational() Mode {
	m.Rational = !m.Rational
	return m
}

// TogglePi flips π-multiple display.
func (m Mode) TogglePi() Mode {
	m.Pi = !m.Pi
	return m
}

// AngleLabel is the status label for the angle unit.
func (m Mode) AngleLabel() string {
	if m.Angle == Radians {
		return "Radians"
	}
	return "Degrees"
}

// RationalLabel is the status label for the number display.
func (m Mode) RationalLabel() string {
	if m.Rational {
		return "Fraction"
	}
	return "Decimal"
}

// PiLabel is the status label for π formatting.
func (m Mode) PiLabel() string {
	if m.Pi {
		return "π"
	}
	return "Exact"
}

func (m Mode) String() string {
	return m.RationalLabel() + " | " + m.PiLabel() + " | " + m.AngleLabel()
}

// Toggle names one of the three mode flags.
type Toggle string

const (
	ToggleAngle    Toggle = "angle"
	ToggleRational Toggle = "rational"
	TogglePi       Toggle = "pi"
)

// ParseToggle resolves a flag name, accepting the short aliases used by the REPL.
func ParseToggle(s string) (Toggle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "angle", "deg", "rad", "trig":
		return ToggleAngle, nil
	case "rational", "frac", "fraction":
		return ToggleRational, nil
	case "pi", "π":
		return TogglePi, nil
	}
	return "", fmt.Errorf("unknown mode flag %q", s)
}

// Apply flips the flag named by t.
func (m Mode) Apply(t Toggle) Mode {
	switch t {
	case ToggleAngle:
		return m.ToggleAngleUnit()
	case ToggleRational:
		return m.ToggleRational()
	case TogglePi:
		return m.TogglePi()
	}
	return m
}

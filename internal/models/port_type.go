package models

import "fmt"

// PortType is the role of a port. The zero value is PortTypeDefault.
type PortType int

const (
	PortTypeDefault PortType = iota
	PortTypeThrusterIn
	PortTypeThrusterOut
	PortTypeWeaponIn
	PortTypeWeaponOut
	PortTypeMissile
	PortTypeLauncher
	PortTypeRoot
	PortTypeNone
)

var portTypeTokens = [...]string{
	PortTypeDefault:     "DEFAULT",
	PortTypeThrusterIn:  "THRUSTER_IN",
	PortTypeThrusterOut: "THRUSTER_OUT",
	PortTypeWeaponIn:    "WEAPON_IN",
	PortTypeWeaponOut:   "WEAPON_OUT",
	PortTypeMissile:     "MISSILE",
	PortTypeLauncher:    "LAUNCHER",
	PortTypeRoot:        "ROOT",
	PortTypeNone:        "NONE",
}

var portTypesByToken = func() map[string]PortType {
	m := make(map[string]PortType, len(portTypeTokens))
	for i, tok := range portTypeTokens {
		m[tok] = PortType(i)
	}
	return m
}()

// AllPortTypes lists every port type in declaration order.
func AllPortTypes() []PortType {
	out := make([]PortType, len(portTypeTokens))
	for i := range portTypeTokens {
		out[i] = PortType(i)
	}
	return out
}

// ParsePortType maps a token such as "THRUSTER_IN" to its PortType.
// Only the exact uppercase token matches; anything else, including
// "thruster_in", maps to PortTypeDefault.
func ParsePortType(token string) PortType {
	if pt, ok := portTypesByToken[token]; ok {
		return pt
	}
	return PortTypeDefault
}

// Token returns the uppercase snake-case token used in shapes.lua.
func (p PortType) Token() string {
	if p < 0 || int(p) >= len(portTypeTokens) {
		return portTypeTokens[PortTypeDefault]
	}
	return portTypeTokens[p]
}

func (p PortType) String() string {
	return p.Token()
}

// IsDefault reports whether the port carries no explicit type.
func (p PortType) IsDefault() bool {
	return p.Token() == portTypeTokens[PortTypeDefault]
}

// MarshalText encodes the port type as its token.
func (p PortType) MarshalText() ([]byte, error) {
	return []byte(p.Token()), nil
}

// UnmarshalText decodes a token with the same exact matching as
// ParsePortType, but rejects unknown tokens since API payloads are expected
// to be well formed.
func (p *PortType) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*p = PortTypeDefault
		return nil
	}
	pt, ok := portTypesByToken[s]
	if !ok {
		return fmt.Errorf("unknown port type: %q", string(text))
	}
	*p = pt
	return nil
}

package model

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
)

// Method identifies an extrapolation method supported by the calculation service.
type Method int

const (
	MethodConstant Method = iota
	MethodLinearTrend
	MethodCurveFit
)

// methodNames are the wire strings used by the calculation API.
var methodNames = map[Method]string{
	MethodConstant:    "Constant",
	MethodLinearTrend: "Linear Trend",
	MethodCurveFit:    "Curve Fit",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts a wire string into a Method.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, eris.Errorf("unknown extrapolation method %q", s)
}

// MarshalJSON encodes the method as its wire string.
func (m Method) MarshalJSON() ([]byte, error) {
	name, ok := methodNames[m]
	if !ok {
		return nil, eris.Errorf("cannot marshal unknown method %d", int(m))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes the method from its wire string.
func (m *Method) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return eris.Wrap(err, "decode method")
	}
	parsed, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Advisory parameter bounds surfaced to users before a request is made.
// The calculation service remains authoritative.
const (
	MinLength = 0.1
	MaxLength = 10000
	MinStep   = 1
	MaxStep   = 50
)

// Params are the adjustable inputs that, together with the source survey,
// fully determine an extrapolation result.
type Params struct {
	Length     float64 `json:"extrapolation_length" yaml:"length" mapstructure:"length"`
	Step       float64 `json:"extrapolation_step" yaml:"step" mapstructure:"step"`
	InterpStep float64 `json:"interpolation_step" yaml:"interp_step" mapstructure:"interp_step"`
	Method     Method  `json:"extrapolation_method" yaml:"method" mapstructure:"method"`
}

// DefaultParams returns the parameters used for a fresh calculation.
func DefaultParams() Params {
	return Params{
		Length:     200,
		Step:       10,
		InterpStep: 10,
		Method:     MethodConstant,
	}
}

// Validate checks positivity, the step-within-length rule, and the advisory
// ranges. Step ≤ Length is the only cross-field constraint.
func (p Params) Validate() error {
	if p.Length <= 0 {
		return eris.New("params: extrapolation length must be positive")
	}
	if p.Step <= 0 {
		return eris.New("params: extrapolation step must be positive")
	}
	if p.InterpStep <= 0 {
		return eris.New("params: interpolation step must be positive")
	}
	if p.Step > p.Length {
		return eris.Errorf("params: step %.2f exceeds length %.2f", p.Step, p.Length)
	}
	if p.Length < MinLength || p.Length > MaxLength {
		return eris.Errorf("params: length %.2f outside [%g, %g]", p.Length, float64(MinLength), float64(MaxLength))
	}
	if p.Step < MinStep || p.Step > MaxStep {
		return eris.Errorf("params: step %.2f outside [%d, %d]", p.Step, MinStep, MaxStep)
	}
	return nil
}

package rig

import "fmt"

// ConfigurationError reports an out-of-range rig parameter. Geometry
// functions fail with it immediately instead of clamping or returning NaN.
type ConfigurationError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s=%g: %s", e.Param, e.Value, e.Reason)
}

func configErr(param string, value float64, reason string) error {
	return &ConfigurationError{Param: param, Value: value, Reason: reason}
}

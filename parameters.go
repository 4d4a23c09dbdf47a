package rulepack

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// ParamType is the declared type of a rule parameter.
type ParamType uint8

const (
	ParamString ParamType = iota
	ParamInt
	ParamBool
	ParamRegex
)

func (t ParamType) String() string {
	switch t {
	case ParamString:
		return "string"
	case ParamInt:
		return "int"
	case ParamBool:
		return "bool"
	case ParamRegex:
		return "regex"
	default:
		return fmt.Sprintf("ParamType(%d)", uint8(t))
	}
}

// ParamSpec declares a single rule parameter.
type ParamSpec struct {
	Name string
	Type ParamType

	// Default is the raw value used when no valid value is configured.
	Default string

	Description string

	// Required parameters produce a warning when they are not configured.
	Required bool
}

// ConfigWarning describes a configured value that was replaced by
// the declared default.
type ConfigWarning struct {
	RuleID string
	Param  string
	Value  string
	Reason string
}

func (w ConfigWarning) String() string {
	if w.Param == "" {
		return fmt.Sprintf("%s: %s (got %q)", w.RuleID, w.Reason, w.Value)
	}
	if w.Value == "" {
		return fmt.Sprintf("%s.%s: %s", w.RuleID, w.Param, w.Reason)
	}
	return fmt.Sprintf("%s.%s: %s (got %q)", w.RuleID, w.Param, w.Reason, w.Value)
}

// ConfigError is a fatal configuration problem of a single rule.
// The rule is dropped, other rules are not affected.
type ConfigError struct {
	RuleID string
	Param  string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("configure %s: %v", e.RuleID, e.Err)
	}
	return fmt.Sprintf("configure %s.%s: %v", e.RuleID, e.Param, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Params holds bound and validated parameter values of one rule.
type Params struct {
	ruleID string
	raw    map[string]string
	values map[string]interface{}
}

// Bind validates raw configuration values against specs.
//
// Keys are matched case-insensitively; keys without a spec are ignored.
// A value that does not fit its declared type, as well as a missing
// required value, is replaced by the default and reported as a warning.
// Regex parameters are compiled anchored to the whole input; an invalid
// pattern is returned as a *ConfigError.
func Bind(ruleID string, specs []ParamSpec, raw map[string]string) (*Params, []ConfigWarning, error) {
	lowered := make(map[string]string, len(raw))
	for k, v := range raw {
		lowered[strings.ToLower(k)] = v
	}

	p := &Params{
		ruleID: ruleID,
		raw:    make(map[string]string, len(specs)),
		values: make(map[string]interface{}, len(specs)),
	}
	var warnings []ConfigWarning
	for _, spec := range specs {
		value, ok := lowered[strings.ToLower(spec.Name)]
		if !ok {
			if spec.Required {
				warnings = append(warnings, ConfigWarning{
					RuleID: ruleID,
					Param:  spec.Name,
					Reason: "required value is missing, using default " + strconv.Quote(spec.Default),
				})
			}
			value = spec.Default
		}

		v, err := parseParam(spec.Type, value)
		if err != nil && ok && spec.Type != ParamRegex {
			warnings = append(warnings, ConfigWarning{
				RuleID: ruleID,
				Param:  spec.Name,
				Value:  value,
				Reason: fmt.Sprintf("want %s, using default %q", spec.Type, spec.Default),
			})
			value = spec.Default
			v, err = parseParam(spec.Type, value)
		}
		if err != nil {
			return nil, warnings, &ConfigError{RuleID: ruleID, Param: spec.Name, Err: err}
		}
		p.raw[spec.Name] = value
		p.values[spec.Name] = v
	}
	return p, warnings, nil
}

func parseParam(typ ParamType, s string) (interface{}, error) {
	switch typ {
	case ParamString:
		return s, nil
	case ParamInt:
		return strconv.Atoi(strings.TrimSpace(s))
	case ParamBool:
		return strconv.ParseBool(strings.TrimSpace(s))
	case ParamRegex:
		return regexp.Compile("^(?:" + s + ")$")
	default:
		return nil, fmt.Errorf("unsupported parameter type %s", typ)
	}
}

// Raw returns the configured (or default) text of the parameter.
func (p *Params) Raw(key string) string {
	return p.raw[key]
}

func (p *Params) Int(key string) int {
	if value, ok := p.values[key]; ok {
		if value, ok := value.(int); ok {
			return value
		}
		p.typeMismatch(key, ParamInt)
	}
	return 0
}

func (p *Params) String(key string) string {
	if value, ok := p.values[key]; ok {
		if value, ok := value.(string); ok {
			return value
		}
		p.typeMismatch(key, ParamString)
	}
	return ""
}

func (p *Params) Bool(key string) bool {
	if value, ok := p.values[key]; ok {
		if value, ok := value.(bool); ok {
			return value
		}
		p.typeMismatch(key, ParamBool)
	}
	return false
}

// Regexp returns the compiled, anchored pattern of a regex parameter.
func (p *Params) Regexp(key string) *regexp.Regexp {
	if value, ok := p.values[key]; ok {
		if value, ok := value.(*regexp.Regexp); ok {
			return value
		}
		p.typeMismatch(key, ParamRegex)
	}
	return nil
}

func (p *Params) typeMismatch(key string, want ParamType) {
	slog.Warn("parameter read with wrong type",
		slog.String("rule", p.ruleID),
		slog.String("param", key),
		slog.String("want", want.String()))
}

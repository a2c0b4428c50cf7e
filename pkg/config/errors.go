package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// FieldProblem describes one invalid key.
type FieldProblem struct {
	Path   string
	EnvVar string
	Rule   string
}

func (p FieldProblem) String() string {
	name := p.Path
	if p.EnvVar != "" {
		name = fmt.Sprintf("%s (%s)", p.Path, p.EnvVar)
	}
	if p.Rule == "required" {
		return name + " is required"
	}
	return fmt.Sprintf("%s fails %q", name, p.Rule)
}

// ValidationError lists every invalid key. Values are never included.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Missing returns the config paths rejected by the required rule.
func (e *ValidationError) Missing() []string {
	var out []string
	for _, p := range e.Problems {
		if p.Rule == "required" {
			out = append(out, p.Path)
		}
	}
	return out
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	return errors.As(err, target)
}

func newMissingError(fieldErrs validator.ValidationErrors) error {
	problems := make([]FieldProblem, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := koanfPath(fe.StructNamespace())
		problems = append(problems, FieldProblem{
			Path:   path,
			EnvVar: GetEnvVarForConfigPath(path),
			Rule:   fe.Tag(),
		})
	}
	return &ValidationError{Problems: problems}
}

// koanfPath maps a validator struct namespace such as
// "Config.Automation.APIKey" to its config key "automation.api_key".
func koanfPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, len(parts))
	for _, name := range parts {
		if t.Kind() != reflect.Struct {
			return strings.Join(append(keys, strings.ToLower(name)), ".")
		}
		field, ok := t.FieldByName(name)
		if !ok {
			return strings.Join(append(keys, strings.ToLower(name)), ".")
		}
		keys = append(keys, field.Tag.Get("koanf"))
		t = field.Type
	}
	return strings.Join(keys, ".")
}

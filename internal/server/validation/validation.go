// Package validation checks request payloads against the embedded JSON
// schemas. Every failure wraps common.ErrValidation.
package validation

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

type Validator struct {
	credentials *jsonschema.Schema
	profile     *jsonschema.Schema
	task        *jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	names := []string{"credentials", "profile", "task"}
	for _, name := range names {
		data, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", name, err)
		}
		if err := c.AddResource(name+".json", doc); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	compiled := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		sch, err := c.Compile(name + ".json")
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		compiled[name] = sch
	}

	return &Validator{
		credentials: compiled["credentials"],
		profile:     compiled["profile"],
		task:        compiled["task"],
	}, nil
}

// Credentials validates a registration email and password.
func (v *Validator) Credentials(email, password string) error {
	if err := check(v.credentials, map[string]any{"email": email, "password": password}); err != nil {
		return err
	}
	return checkPasswordLength(password)
}

// Profile validates the values of a profile update. Keys outside the
// profile schema are reported as unknown fields.
func (v *Validator) Profile(fields map[string]any) error {
	if err := check(v.profile, fields); err != nil {
		return err
	}
	if pw, ok := fields["password"].(string); ok {
		return checkPasswordLength(pw)
	}
	return nil
}

// Task validates a new task.
func (v *Validator) Task(description string, completed bool) error {
	return check(v.task, map[string]any{"description": description, "completed": completed})
}

func checkPasswordLength(pw string) error {
	if len(pw) > MaxPasswordBytes {
		return fmt.Errorf("%w: password longer than %d bytes", common.ErrValidation, MaxPasswordBytes)
	}
	return nil
}

func check(sch *jsonschema.Schema, doc map[string]any) error {
	err := sch.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	var problems []string
	collect(ve, &problems)
	return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(problems, "; "))
}

func collect(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			collect(c, out)
		}
		return
	}

	switch k := ve.ErrorKind.(type) {
	case *kind.Required:
		*out = append(*out, "missing "+strings.Join(k.Missing, ", "))
	case *kind.AdditionalProperties:
		*out = append(*out, "unknown field "+strings.Join(k.Properties, ", "))
	default:
		field := "value"
		if n := len(ve.InstanceLocation); n > 0 {
			field = ve.InstanceLocation[n-1]
		}
		*out = append(*out, "invalid "+field)
	}
}

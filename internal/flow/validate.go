package flow

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Field names used in StepData.
const (
	FieldBrokerCode       = "broker_code"
	FieldOperatorID       = "operator_id"
	FieldModality         = "modality"
	FieldStartDate        = "start_date"
	FieldLives            = "lives"
	FieldCNPJ             = "cnpj"
	FieldLegalName        = "legal_name"
	FieldEmail            = "email"
	FieldHolderCount      = "holder_count"
	FieldPlanName         = "plan_name"
	FieldName             = "name"
	FieldCPF              = "cpf"
	FieldBirthDate        = "birth_date"
	FieldDependentCount   = "dependent_count"
	FieldHasGrace         = "has_grace"
	FieldPreviousOperator = "previous_operator"
	FieldFiles            = "files"
)

const (
	dateLayout      = "2006-01-02"
	maxDocumentSize = 10 << 20
)

var documentExts = map[string]bool{".pdf": true, ".jpg": true, ".jpeg": true, ".png": true}

// ValidationError reports why a step's data is not acceptable.
type ValidationError struct {
	Step   Step
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Step, e.Field, e.Reason)
}

// Validator checks the payload of one step.
type Validator func(step Step, d StepData) error

// Validators maps steps to their validator. Steps without an entry always pass.
type Validators map[Step]Validator

// Check runs the validator registered for step, if any.
func (v Validators) Check(step Step, d StepData) error {
	if v == nil {
		return nil
	}
	fn, ok := v[step]
	if !ok || fn == nil {
		return nil
	}
	return fn(step, d)
}

// With returns a copy of v with step bound to fn.
func (v Validators) With(step Step, fn Validator) Validators {
	out := make(Validators, len(v)+1)
	for k, f := range v {
		out[k] = f
	}
	out[step] = fn
	return out
}

// DefaultValidators returns the built-in validators for both form types.
func DefaultValidators() Validators {
	return Validators{
		StepBroker:     required(FieldBrokerCode),
		StepModality:   all(required(FieldOperatorID), oneOf(FieldModality, "compulsory", "voluntary")),
		StepContract:   all(date(FieldStartDate), positiveInt(FieldLives)),
		StepCompany:    all(required(FieldLegalName), digits(FieldCNPJ, 14), email(FieldEmail)),
		StepHolders:    positiveInt(FieldHolderCount),
		StepPlan:       all(required(FieldOperatorID), required(FieldPlanName)),
		StepHolder:     all(required(FieldName), digits(FieldCPF, 11), date(FieldBirthDate), email(FieldEmail)),
		StepDependents: nonNegativeInt(FieldDependentCount),
		StepGrace:      grace,
		StepDocuments:  documents,
	}
}

func all(fns ...Validator) Validator {
	return func(step Step, d StepData) error {
		for _, fn := range fns {
			if err := fn(step, d); err != nil {
				return err
			}
		}
		return nil
	}
}

func value(d StepData, field string) string {
	return strings.TrimSpace(d[field])
}

func required(field string) Validator {
	return func(step Step, d StepData) error {
		if value(d, field) == "" {
			return &ValidationError{Step: step, Field: field, Reason: "required"}
		}
		return nil
	}
}

func oneOf(field string, allowed ...string) Validator {
	return func(step Step, d StepData) error {
		v := strings.ToLower(value(d, field))
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return &ValidationError{Step: step, Field: field, Reason: "must be one of " + strings.Join(allowed, ", ")}
	}
}

func date(field string) Validator {
	return func(step Step, d StepData) error {
		v := value(d, field)
		if v == "" {
			return &ValidationError{Step: step, Field: field, Reason: "required"}
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			return &ValidationError{Step: step, Field: field, Reason: "expected YYYY-MM-DD"}
		}
		return nil
	}
}

func positiveInt(field string) Validator {
	return func(step Step, d StepData) error {
		n, err := strconv.Atoi(value(d, field))
		if err != nil || n < 1 {
			return &ValidationError{Step: step, Field: field, Reason: "must be a positive number"}
		}
		return nil
	}
}

func nonNegativeInt(field string) Validator {
	return func(step Step, d StepData) error {
		n, err := strconv.Atoi(value(d, field))
		if err != nil || n < 0 {
			return &ValidationError{Step: step, Field: field, Reason: "must be zero or more"}
		}
		return nil
	}
}

// digits accepts formatted input (dots, slashes, dashes) as long as it has n digits.
func digits(field string, n int) Validator {
	return func(step Step, d StepData) error {
		v := value(d, field)
		count := 0
		for _, r := range v {
			switch {
			case r >= '0' && r <= '9':
				count++
			case r == '.' || r == '/' || r == '-' || r == ' ':
			default:
				return &ValidationError{Step: step, Field: field, Reason: "invalid character"}
			}
		}
		if count != n {
			return &ValidationError{Step: step, Field: field, Reason: fmt.Sprintf("must have %d digits", n)}
		}
		return nil
	}
}

func email(field string) Validator {
	return func(step Step, d StepData) error {
		v := value(d, field)
		if v == "" {
			return &ValidationError{Step: step, Field: field, Reason: "required"}
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v {
			return &ValidationError{Step: step, Field: field, Reason: "invalid e-mail"}
		}
		return nil
	}
}

func grace(step Step, d StepData) error {
	switch strings.ToLower(value(d, FieldHasGrace)) {
	case "no":
		return nil
	case "yes":
		return required(FieldPreviousOperator)(step, d)
	}
	return &ValidationError{Step: step, Field: FieldHasGrace, Reason: "answer yes or no"}
}

// SplitFiles parses the comma separated file list of the documents step.
func SplitFiles(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func documents(step Step, d StepData) error {
	files := SplitFiles(d[FieldFiles])
	if len(files) == 0 {
		return &ValidationError{Step: step, Field: FieldFiles, Reason: "attach at least one document"}
	}
	for _, f := range files {
		if !documentExts[strings.ToLower(filepath.Ext(f))] {
			return &ValidationError{Step: step, Field: FieldFiles, Reason: filepath.Base(f) + ": unsupported type"}
		}
		info, err := os.Stat(f)
		if err != nil {
			return &ValidationError{Step: step, Field: FieldFiles, Reason: filepath.Base(f) + ": not found"}
		}
		if info.IsDir() {
			return &ValidationError{Step: step, Field: FieldFiles, Reason: filepath.Base(f) + ": is a directory"}
		}
		if info.Size() > maxDocumentSize {
			return &ValidationError{Step: step, Field: FieldFiles, Reason: filepath.Base(f) + ": larger than 10MB"}
		}
	}
	return nil
}

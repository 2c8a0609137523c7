package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/jask/planwizard/internal/flow"
)

type fieldSpec struct {
	key         string
	label       string
	placeholder string
	numeric     bool
}

var stepTitles = map[flow.Step]string{
	flow.StepBroker:     "Broker",
	flow.StepModality:   "Operator & modality",
	flow.StepContract:   "Contract",
	flow.StepCompany:    "Company",
	flow.StepHolders:    "Holders",
	flow.StepPlan:       "Operator & plan",
	flow.StepHolder:     "Holder",
	flow.StepDependents: "Dependents",
	flow.StepGrace:      "Grace period",
	flow.StepDocuments:  "Documents",
	flow.StepReview:     "Review",
}

var stepFields = map[flow.Step][]fieldSpec{
	flow.StepBroker: {
		{key: flow.FieldBrokerCode, label: "Broker code", placeholder: "BRK-01"},
	},
	flow.StepModality: {
		{key: flow.FieldModality, label: "Modality", placeholder: "compulsory | voluntary"},
	},
	flow.StepContract: {
		{key: flow.FieldStartDate, label: "Start date", placeholder: "2026-01-31"},
		{key: flow.FieldLives, label: "Covered lives", placeholder: "10", numeric: true},
	},
	flow.StepCompany: {
		{key: flow.FieldLegalName, label: "Legal name", placeholder: "ACME LTDA"},
		{key: flow.FieldCNPJ, label: "CNPJ", placeholder: "12.345.678/0001-90"},
		{key: flow.FieldEmail, label: "E-mail", placeholder: "rh@acme.com.br"},
	},
	flow.StepHolders: {
		{key: flow.FieldHolderCount, label: "Number of holders", placeholder: "5", numeric: true},
	},
	flow.StepPlan: {
		{key: flow.FieldPlanName, label: "Plan", placeholder: "Amil 400"},
	},
	flow.StepHolder: {
		{key: flow.FieldName, label: "Full name", placeholder: "Ana Souza"},
		{key: flow.FieldCPF, label: "CPF", placeholder: "123.456.789-09"},
		{key: flow.FieldBirthDate, label: "Birth date", placeholder: "1990-05-20"},
		{key: flow.FieldEmail, label: "E-mail", placeholder: "ana@example.com"},
	},
	flow.StepDependents: {
		{key: flow.FieldDependentCount, label: "Dependents", placeholder: "0", numeric: true},
	},
	flow.StepGrace: {
		{key: flow.FieldHasGrace, label: "Grace transfer", placeholder: "yes | no"},
		{key: flow.FieldPreviousOperator, label: "Previous operator", placeholder: "only when transferring"},
	},
	flow.StepDocuments: {
		{key: flow.FieldFiles, label: "Document files", placeholder: "/path/contract.pdf, /path/id.png"},
	},
}

// pickerSteps carry the operator picker above their fields.
var pickerSteps = map[flow.Step]bool{
	flow.StepModality: true,
	flow.StepPlan:     true,
}

var operatorIDField = fieldSpec{key: flow.FieldOperatorID, label: "Operator id", placeholder: "amil"}

// fieldsFor returns the inputs of step. Without an operator source the picker
// is replaced by a plain operator id field.
func fieldsFor(step flow.Step, hasSource bool) []fieldSpec {
	specs := stepFields[step]
	if pickerSteps[step] && !hasSource {
		return append([]fieldSpec{operatorIDField}, specs...)
	}
	return specs
}

func labelFor(step flow.Step, key string) string {
	if key == flow.FieldOperatorID {
		return "Operator"
	}
	for _, f := range stepFields[step] {
		if f.key == key {
			return f.label
		}
	}
	return key
}

func isNumeric(step flow.Step, key string) bool {
	for _, f := range stepFields[step] {
		if f.key == key {
			return f.numeric
		}
	}
	return false
}

func newInput(spec fieldSpec, value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = spec.placeholder
	ti.CharLimit = 512
	ti.Width = 48
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.SetValue(value)
	return ti
}

// Package flow owns the ordered step sequence of the issuance wizard and the
// current position inside it. Forward navigation is gated by per-step validators.
package flow

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sanity-io/litter"
)

// FormType is the top-level branch of the wizard.
type FormType string

const (
	FormUnset      FormType = ""
	FormPME        FormType = "pme"
	FormIndividual FormType = "individual"
)

// Step is one named stage of the wizard.
type Step string

const (
	StepBroker     Step = "broker"
	StepModality   Step = "modality"
	StepContract   Step = "contract"
	StepCompany    Step = "company"
	StepHolders    Step = "holders"
	StepPlan       Step = "plan"
	StepHolder     Step = "holder"
	StepDependents Step = "dependents"
	StepGrace      Step = "grace"
	StepDocuments  Step = "documents"
	StepReview     Step = "review"
)

var definitions = map[FormType][]Step{
	FormPME:        {StepBroker, StepModality, StepContract, StepCompany, StepHolders, StepGrace, StepDocuments, StepReview},
	FormIndividual: {StepBroker, StepPlan, StepHolder, StepDependents, StepGrace, StepDocuments, StepReview},
}

var (
	ErrNoFormType     = errors.New("flow: form type not selected")
	ErrStepOutOfRange = errors.New("flow: step index out of range")
	ErrAtLastStep     = errors.New("flow: already at last step")
)

// ParseFormType maps user input to a FormType. Unknown values return FormUnset.
func ParseFormType(s string) FormType {
	switch FormType(s) {
	case FormPME, FormIndividual:
		return FormType(s)
	}
	return FormUnset
}

// Steps returns a copy of the step sequence for t, or nil for unknown types.
func Steps(t FormType) []Step {
	def, ok := definitions[t]
	if !ok {
		return nil
	}
	out := make([]Step, len(def))
	copy(out, def)
	return out
}

// StepData is the payload captured by a single step, keyed by field name.
type StepData map[string]string

func (d StepData) clone() StepData {
	if d == nil {
		return nil
	}
	out := make(StepData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Flow is the step flow controller for one wizard session.
// It is not safe for concurrent use; the UI loop owns it.
type Flow struct {
	formType   FormType
	index      int
	data       map[Step]StepData
	visited    mapset.Set[Step]
	validators Validators
}

// New returns a Flow with no form type selected. A nil Validators disables gating.
func New(v Validators) *Flow {
	return &Flow{
		data:       map[Step]StepData{},
		visited:    mapset.NewThreadUnsafeSet[Step](),
		validators: v,
	}
}

// SelectFormType sets the form type once. Unset or unknown types, and calls
// after a type was already chosen, are ignored. Returns whether t was applied.
func (f *Flow) SelectFormType(t FormType) bool {
	if f.formType != FormUnset {
		return false
	}
	if _, ok := definitions[t]; !ok {
		return false
	}
	f.formType = t
	f.index = 0
	f.visited.Add(definitions[t][0])
	return true
}

// Reset discards the session: form type, position, data and visited steps.
func (f *Flow) Reset() {
	f.formType = FormUnset
	f.index = 0
	f.data = map[Step]StepData{}
	f.visited.Clear()
}

func (f *Flow) FormType() FormType { return f.formType }

// Steps returns the active step sequence.
func (f *Flow) Steps() []Step { return Steps(f.formType) }

func (f *Flow) Index() int { return f.index }

// LastIndex is -1 when no form type is selected.
func (f *Flow) LastIndex() int { return len(definitions[f.formType]) - 1 }

// Current returns the active step, or "" when no form type is selected.
func (f *Flow) Current() Step {
	def := definitions[f.formType]
	if len(def) == 0 {
		return ""
	}
	return def[f.index]
}

// GoToStep jumps to index i. Out-of-range requests are rejected and leave the
// position unchanged; no clamping happens.
func (f *Flow) GoToStep(i int) error {
	if f.formType == FormUnset {
		return ErrNoFormType
	}
	if i < 0 || i > f.LastIndex() {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrStepOutOfRange, i, f.LastIndex())
	}
	f.index = i
	f.visited.Add(f.Current())
	return nil
}

// Advance moves one step forward when the current step's data validates.
// At the last step it returns ErrAtLastStep and does nothing.
func (f *Flow) Advance() error {
	if f.formType == FormUnset {
		return ErrNoFormType
	}
	if f.index >= f.LastIndex() {
		return ErrAtLastStep
	}
	if err := f.validators.Check(f.Current(), f.data[f.Current()]); err != nil {
		return err
	}
	f.index++
	f.visited.Add(f.Current())
	return nil
}

// Retreat moves one step back. Returns false at the first step.
func (f *Flow) Retreat() bool {
	if f.formType == FormUnset || f.index == 0 {
		return false
	}
	f.index--
	f.visited.Add(f.Current())
	return true
}

// IsTerminal reports whether the current step is the review step.
func (f *Flow) IsTerminal() bool {
	return f.formType != FormUnset && f.index == f.LastIndex()
}

// SetData replaces the payload for step. Steps outside the active sequence are ignored.
func (f *Flow) SetData(step Step, d StepData) {
	if f.position(step) < 0 {
		return
	}
	f.data[step] = d.clone()
}

// Data returns a copy of the payload for step.
func (f *Flow) Data(step Step) StepData {
	return f.data[step].clone()
}

// Visited returns the steps reached so far in sequence order.
func (f *Flow) Visited() []Step {
	var out []Step
	for _, s := range definitions[f.formType] {
		if f.visited.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}

// Validate runs every validator of the active sequence and returns the first failure.
func (f *Flow) Validate() error {
	if f.formType == FormUnset {
		return ErrNoFormType
	}
	for _, s := range definitions[f.formType] {
		if err := f.validators.Check(s, f.data[s]); err != nil {
			return err
		}
	}
	return nil
}

func (f *Flow) position(step Step) int {
	for i, s := range definitions[f.formType] {
		if s == step {
			return i
		}
	}
	return -1
}

// State is an immutable view of the flow.
type State struct {
	FormType FormType
	Index    int
	Step     Step
	Steps    []Step
	Data     map[Step]StepData
}

// Snapshot copies the current flow state.
func (f *Flow) Snapshot() State {
	data := make(map[Step]StepData, len(f.data))
	for k, v := range f.data {
		data[k] = v.clone()
	}
	return State{
		FormType: f.formType,
		Index:    f.index,
		Step:     f.Current(),
		Steps:    f.Steps(),
		Data:     data,
	}
}

// Dump renders the state for the debug log.
func (s State) Dump() string {
	return litter.Sdump(s)
}

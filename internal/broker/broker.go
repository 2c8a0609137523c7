// Package broker resolves the broker chosen on the first wizard step.
package broker

import (
	"strings"

	"github.com/jask/planwizard/internal/flow"
)

// Broker is a registered insurance broker.
type Broker struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	SUSEP string `yaml:"susep"`
}

// Directory looks brokers up by code, ignoring case.
type Directory struct {
	byCode map[string]Broker
}

func NewDirectory(brokers []Broker) *Directory {
	d := &Directory{byCode: make(map[string]Broker, len(brokers))}
	for _, b := range brokers {
		d.byCode[strings.ToLower(strings.TrimSpace(b.Code))] = b
	}
	return d
}

func (d *Directory) Len() int { return len(d.byCode) }

func (d *Directory) Lookup(code string) (Broker, bool) {
	b, ok := d.byCode[strings.ToLower(strings.TrimSpace(code))]
	return b, ok
}

// Validator checks the broker step. With an empty directory any code is accepted.
func (d *Directory) Validator() flow.Validator {
	return func(step flow.Step, data flow.StepData) error {
		code := strings.TrimSpace(data[flow.FieldBrokerCode])
		if code == "" {
			return &flow.ValidationError{Step: step, Field: flow.FieldBrokerCode, Reason: "required"}
		}
		if d.Len() == 0 {
			return nil
		}
		if _, ok := d.Lookup(code); !ok {
			return &flow.ValidationError{Step: step, Field: flow.FieldBrokerCode, Reason: "unknown broker " + code}
		}
		return nil
	}
}

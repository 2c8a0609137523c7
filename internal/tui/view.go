package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/planwizard/internal/flow"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	focusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// View recovers panics raised while rendering and shows the crash screen instead.
func (a *App) View() (out string) {
	if a.state == viewCrashed {
		return a.renderCrash()
	}
	defer func() {
		if r := recover(); r != nil {
			a.crash(r)
			out = a.renderCrash()
		}
	}()
	return a.render()
}

func (a *App) render() string {
	var body string
	switch a.state {
	case viewDone:
		body = a.renderDone()
	case viewStep:
		if a.flow.IsTerminal() {
			body = a.renderReview()
		} else {
			body = a.renderStep()
		}
	default:
		body = a.renderStart()
	}
	if a.modal == modalOperatorSearch {
		body += "\n\n" + titleStyle.Render("Search operators") + "\n" + a.search.View() + "\n[enter] Search  [esc] Cancel"
	}
	if a.banner.Visible {
		body = a.renderBanner() + "\n\n" + body
	}
	out := body + "\n\n" + a.renderSettingsLine()
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderBanner() string {
	msg := fmt.Sprintf("A new version is available (%s, running %s). Press ctrl+r to reload.", a.banner.Observed, a.banner.Applied)
	if a.width > 0 {
		return bannerStyle.MaxWidth(a.width).Render(msg)
	}
	return bannerStyle.Render(msg)
}

func (a *App) renderSettingsLine() string {
	debugText, localeText := "off", "default"
	if a.deps.Settings != nil {
		if a.deps.Settings.Debug() {
			debugText = "on"
		}
		if l := a.deps.Settings.Locale(); l != "" {
			localeText = l
		}
	}
	return dimStyle.Render(fmt.Sprintf("locale %s (%s)  debug %s  [ctrl+l] Locale  [ctrl+d] Debug  [ctrl+k] Clear cache  [ctrl+c] Quit",
		a.format.Tag(), localeText, debugText))
}

func (a *App) renderStart() string {
	out := titleStyle.Render("New health plan proposal") + "\n"
	labels := map[flow.FormType]string{
		flow.FormPME:        "[p] PME (company plan)",
		flow.FormIndividual: "[i] Individual",
	}
	for i, ft := range formChoices {
		marker := " "
		if i == a.startCursor {
			marker = "▶"
		}
		out += fmt.Sprintf("%s %s\n", marker, labels[ft])
	}
	out += "[enter] Start  [q] Quit"
	return out
}

func (a *App) renderProgress() string {
	steps := a.flow.Steps()
	return dimStyle.Render(fmt.Sprintf("%s  step %d of %d", a.flow.FormType(), a.flow.Index()+1, len(steps)))
}

func (a *App) renderStep() string {
	step := a.flow.Current()
	out := titleStyle.Render(stepTitles[step]) + "\n" + a.renderProgress() + "\n\n"
	if a.showsPicker() {
		out += a.renderPicker() + "\n"
	}
	for i, spec := range a.specs {
		label := fmt.Sprintf("%-18s", spec.label)
		if !a.pickerFocus && i == a.focus {
			label = focusStyle.Render(label)
		}
		out += label + " " + a.inputs[i].View() + "\n"
	}
	out += "\n[enter] Next  [esc] Back  [tab] Next field"
	return out
}

func (a *App) renderPicker() string {
	out := "Operator"
	if sel, ok := a.ops.Selected(); ok {
		out += ": " + sel.Name
	}
	if a.pickerFocus {
		out = focusStyle.Render(out)
	}
	out += "\n"
	if s := a.ops.Search(); s != "" {
		out += dimStyle.Render("search: "+s) + "\n"
	}
	items := a.ops.Items()
	if len(items) == 0 {
		out += "  (no operators)\n"
	}
	selected := a.ops.SelectedID()
	for i, op := range items {
		marker := " "
		if a.pickerFocus && i == a.opCursor {
			marker = "▶"
		}
		check := " "
		if op.ID == selected {
			check = "✓"
		}
		out += fmt.Sprintf("%s %s %-32s ANS %s\n", marker, check, op.Name, op.ANSCode)
	}
	out += dimStyle.Render(fmt.Sprintf("page %s of %s", a.format.Count(a.ops.Page()), a.format.Count(a.ops.TotalPages()))) + "\n"
	out += "[enter] Select  [/] Search  [m] More  [x] Clear"
	return out
}

func (a *App) renderReview() string {
	out := titleStyle.Render(stepTitles[flow.StepReview]) + "\n" + a.renderProgress() + "\n"
	for i, step := range a.flow.Steps() {
		if step == flow.StepReview {
			continue
		}
		out += fmt.Sprintf("\n[%d] %s\n", i+1, stepTitles[step])
		data := a.flow.Data(step)
		for _, spec := range fieldsFor(step, false) {
			value := data[spec.key]
			if value == "" {
				continue
			}
			out += fmt.Sprintf("    %-18s %s\n", labelFor(step, spec.key), a.displayValue(step, spec.key, value))
		}
	}
	out += "\n[enter] Submit  [1-9] Edit step  [esc] Back"
	return out
}

func (a *App) displayValue(step flow.Step, key, value string) string {
	if key == flow.FieldOperatorID {
		if sel, ok := a.ops.Selected(); ok && sel.ID == value {
			return sel.Name
		}
		return value
	}
	if key == flow.FieldFiles {
		return strings.Join(flow.SplitFiles(value), ", ")
	}
	if isNumeric(step, key) {
		if n, err := strconv.Atoi(value); err == nil {
			return a.format.Count(n)
		}
	}
	return value
}

func (a *App) renderDone() string {
	out := titleStyle.Render("Proposal submitted") + "\n"
	if s := a.lastSubmission; s != nil {
		out += fmt.Sprintf("Protocol: %s\nForm: %s  Operator: %s  Broker: %s\n", s.ID, s.FormType, s.OperatorID, s.BrokerCode)
		if !s.CreatedAt.IsZero() {
			out += "Submitted at " + s.CreatedAt.In(a.tz).Format("2006-01-02 15:04") + "\n"
		}
	}
	out += "[n] New proposal  [q] Quit"
	return out
}

func (a *App) renderCrash() string {
	out := errorStyle.Render("Something went wrong.") + "\n"
	out += "The wizard hit an unexpected error. Reloading starts it over.\n"
	if a.showDetails {
		out += "\n" + a.crashErr + "\n" + dimStyle.Render(a.crashStack) + "\n"
	}
	out += "\n[r] Reload  [d] Details  [q] Quit"
	return out
}

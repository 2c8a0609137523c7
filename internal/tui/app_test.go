package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/planwizard/internal/config"
	"github.com/jask/planwizard/internal/database/repository"
	"github.com/jask/planwizard/internal/flow"
	"github.com/jask/planwizard/internal/operator"
	"github.com/jask/planwizard/internal/version"
)

type fakeSubmitter struct {
	got   []flow.State
	err   error
	calls int
}

func (s *fakeSubmitter) Submit(_ context.Context, f *flow.Flow, locale string) (repository.Submission, error) {
	s.calls++
	if s.err != nil {
		return repository.Submission{}, s.err
	}
	state := f.Snapshot()
	s.got = append(s.got, state)
	return repository.Submission{
		ID:         fmt.Sprintf("sub-%d", s.calls),
		FormType:   string(state.FormType),
		BrokerCode: state.Data[flow.StepBroker][flow.FieldBrokerCode],
		Locale:     locale,
	}, nil
}

type fakePrefs struct {
	debug  bool
	locale string
}

func (p *fakePrefs) Debug() bool    { return p.debug }
func (p *fakePrefs) Locale() string { return p.locale }

func (p *fakePrefs) SetDebug(_ context.Context, on bool) error {
	p.debug = on
	return nil
}

func (p *fakePrefs) SetLocale(_ context.Context, tag string) error {
	p.locale = tag
	return nil
}

type fakeAcks struct{ versions []string }

func (f *fakeAcks) Acknowledge(_ context.Context, v string) error {
	f.versions = append(f.versions, v)
	return nil
}

type fakeCleaner struct{ n int64 }

func (f fakeCleaner) ClearCaches(context.Context) (int64, error) { return f.n, nil }

// flakySource fails the first fetch of failPage.
type flakySource struct {
	operator.Source
	failPage  int
	failed    bool
	requested []int
}

func (f *flakySource) Fetch(ctx context.Context, page int, search string) (operator.Page, error) {
	f.requested = append(f.requested, page)
	if page == f.failPage && !f.failed {
		f.failed = true
		return operator.Page{}, errors.New("connection reset")
	}
	return f.Source.Fetch(ctx, page, search)
}

func testOperators(n int) []operator.Operator {
	out := make([]operator.Operator, n)
	for i := range out {
		out[i] = operator.Operator{
			ID:      fmt.Sprintf("op-%02d", i+1),
			Name:    fmt.Sprintf("Operator %02d", i+1),
			ANSCode: fmt.Sprintf("%06d", 300000+i),
		}
	}
	return out
}

type testEnv struct {
	app   *App
	sub   *fakeSubmitter
	prefs *fakePrefs
	acks  *fakeAcks
}

func newTestApp(t *testing.T, validators flow.Validators, ops []operator.Operator) testEnv {
	t.Helper()
	env := testEnv{sub: &fakeSubmitter{}, prefs: &fakePrefs{}, acks: &fakeAcks{}}
	deps := Deps{
		Issuance:    env.sub,
		Maintenance: fakeCleaner{n: 1500},
		Versions:    env.acks,
		Settings:    env.prefs,
		Validators:  validators,
	}
	if ops != nil {
		deps.Operators = &operator.CatalogSource{Operators: ops, PageSize: 10}
	}
	cfg := config.Config{UI: config.UIConfig{DefaultLocale: "pt-BR"}}
	env.app = New(context.Background(), cfg, deps)
	return env
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	case "ctrl+k":
		return tea.KeyMsg{Type: tea.KeyCtrlK}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// drain runs cmd and every command it produces, feeding messages back into a.
func drain(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 64 {
			t.Fatal("command chain exceeded max depth")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, c := a.Update(msg)
			queue = append(queue, c)
		}
	}
}

func send(t *testing.T, a *App, msg tea.Msg) {
	t.Helper()
	_, cmd := a.Update(msg)
	drain(t, a, cmd)
}

func press(t *testing.T, a *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		send(t, a, keyMsg(k))
	}
}

func typeText(t *testing.T, a *App, s string) {
	t.Helper()
	for _, r := range s {
		send(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestPMEWizardSubmitsCollectedData(t *testing.T) {
	env := newTestApp(t, nil, testOperators(3))
	a := env.app

	press(t, a, "p")
	require.Equal(t, viewStep, a.state)
	require.Equal(t, flow.StepBroker, a.flow.Current())

	typeText(t, a, "BRK-01")
	press(t, a, "enter")
	require.Equal(t, flow.StepModality, a.flow.Current())
	require.Len(t, a.ops.Items(), 3)
	require.True(t, a.pickerFocus)

	press(t, a, "down", "enter")
	require.Equal(t, "op-02", a.ops.SelectedID())
	require.False(t, a.pickerFocus)
	typeText(t, a, "compulsory")
	press(t, a, "enter")
	require.Equal(t, flow.StepContract, a.flow.Current())

	typeText(t, a, "2026-03-01")
	press(t, a, "tab")
	typeText(t, a, "1234")
	for !a.flow.IsTerminal() {
		press(t, a, "enter")
	}

	view := a.View()
	require.Contains(t, view, "BRK-01")
	require.Contains(t, view, "Operator 02")
	require.Contains(t, view, "1.234")

	press(t, a, "enter")
	require.Equal(t, viewDone, a.state)
	require.Len(t, env.sub.got, 1)
	got := env.sub.got[0]
	require.Equal(t, flow.FormPME, got.FormType)
	require.Equal(t, "op-02", got.Data[flow.StepModality][flow.FieldOperatorID])
	require.Equal(t, "compulsory", got.Data[flow.StepModality][flow.FieldModality])
	require.Equal(t, "1234", got.Data[flow.StepContract][flow.FieldLives])
	require.Contains(t, a.View(), "sub-1")

	press(t, a, "n")
	require.Equal(t, viewStart, a.state)
	require.Equal(t, flow.FormUnset, a.flow.FormType())
	require.Empty(t, a.ops.SelectedID())
}

func TestValidationErrorKeepsStep(t *testing.T) {
	env := newTestApp(t, flow.DefaultValidators(), nil)
	a := env.app

	press(t, a, "i", "enter")
	require.Equal(t, flow.StepBroker, a.flow.Current())
	require.Contains(t, a.status, flow.FieldBrokerCode)

	typeText(t, a, "BRK-01")
	press(t, a, "enter")
	require.Equal(t, flow.StepPlan, a.flow.Current())
	// without an operator source the plan step asks for the id directly
	require.Equal(t, flow.FieldOperatorID, a.specs[0].key)

	press(t, a, "tab")
	typeText(t, a, "Amil 400")
	press(t, a, "enter")
	require.Equal(t, flow.StepPlan, a.flow.Current())
	require.Equal(t, 0, a.focus, "focus moves to the failing field")
	typeText(t, a, "amil")
	press(t, a, "enter")
	require.Equal(t, flow.StepHolder, a.flow.Current())
}

func TestEscAtFirstStepReturnsToStart(t *testing.T) {
	env := newTestApp(t, nil, nil)
	a := env.app

	press(t, a, "down", "enter")
	require.Equal(t, flow.FormIndividual, a.flow.FormType())
	typeText(t, a, "X")
	press(t, a, "enter", "esc")
	require.Equal(t, flow.StepBroker, a.flow.Current())
	require.Equal(t, "X", a.inputs[0].Value())

	press(t, a, "esc")
	require.Equal(t, viewStart, a.state)
	require.Equal(t, flow.FormUnset, a.flow.FormType())
}

func TestOperatorPickerSearchAndPagination(t *testing.T) {
	ops := testOperators(15)
	ops[14] = operator.Operator{ID: "amil", Name: "Amil Saude", ANSCode: "326305"}
	env := newTestApp(t, nil, ops)
	a := env.app

	press(t, a, "i", "enter")
	require.Equal(t, flow.StepPlan, a.flow.Current())
	require.Len(t, a.ops.Items(), 10)
	require.Equal(t, 2, a.ops.TotalPages())

	press(t, a, "m")
	require.Len(t, a.ops.Items(), 15)
	press(t, a, "m")
	require.Equal(t, "no more operators", a.status)

	press(t, a, "/")
	require.Equal(t, modalOperatorSearch, a.modal)
	typeText(t, a, "amil")
	press(t, a, "enter")
	require.Equal(t, modalNone, a.modal)
	require.Equal(t, "amil", a.ops.Search())
	require.Equal(t, []operator.Operator{ops[14]}, a.ops.Items())

	press(t, a, "enter")
	require.Equal(t, "amil", a.ops.SelectedID())

	// the selection survives a search that no longer lists it
	press(t, a, "shift+tab")
	require.True(t, a.pickerFocus)
	press(t, a, "/")
	typeText(t, a, "zzz")
	press(t, a, "enter")
	require.Empty(t, a.ops.Items())
	sel, ok := a.ops.Selected()
	require.True(t, ok)
	require.Equal(t, "Amil Saude", sel.Name)

	press(t, a, "x")
	require.Empty(t, a.ops.SelectedID())
	require.Empty(t, a.ops.Search())
	require.Len(t, a.ops.Items(), 10)
}

func TestFailedPageIsRequestedAgain(t *testing.T) {
	ops := testOperators(25)
	env := newTestApp(t, nil, nil)
	a := env.app
	src := &flakySource{Source: &operator.CatalogSource{Operators: ops, PageSize: 10}, failPage: 2}
	a.deps.Operators = src

	press(t, a, "i", "enter")
	require.Len(t, a.ops.Items(), 10)

	press(t, a, "m")
	require.Contains(t, a.status, "connection reset")
	require.Equal(t, 1, a.ops.Page())
	require.Len(t, a.ops.Items(), 10)

	press(t, a, "m")
	require.Equal(t, []int{1, 2, 2}, src.requested)
	require.Len(t, a.ops.Items(), 20)
	require.Equal(t, ops[10:20], a.ops.Items()[10:])

	press(t, a, "m")
	require.Len(t, a.ops.Items(), 25)
	require.Equal(t, []int{1, 2, 2, 3}, src.requested)
}

func TestReviewJumpsToStep(t *testing.T) {
	env := newTestApp(t, nil, nil)
	a := env.app

	press(t, a, "p")
	for !a.flow.IsTerminal() {
		press(t, a, "enter")
	}
	require.Equal(t, 7, a.flow.Index())

	press(t, a, "9")
	require.True(t, a.flow.IsTerminal())
	require.Contains(t, a.status, "out of range")

	press(t, a, "4")
	require.Equal(t, flow.StepCompany, a.flow.Current())
	require.Len(t, a.inputs, 3)
}

func TestSubmitFailureStaysOnReview(t *testing.T) {
	env := newTestApp(t, nil, nil)
	env.sub.err = errors.New("disk full")
	a := env.app

	press(t, a, "i")
	for !a.flow.IsTerminal() {
		press(t, a, "enter")
	}
	press(t, a, "enter")
	require.Equal(t, viewStep, a.state)
	require.True(t, a.flow.IsTerminal())
	require.Equal(t, "error: disk full", a.status)
}

func TestVersionBannerAndReload(t *testing.T) {
	env := newTestApp(t, nil, nil)
	a := env.app

	press(t, a, "p")
	send(t, a, VersionMsg(version.Result{Status: version.StatusUpToDate, Applied: "1.0.0", Observed: "1.0.0"}))
	require.False(t, a.banner.Visible)

	stale := VersionMsg(version.Result{Status: version.StatusStale, Applied: "1.0.0", Observed: "1.1.0"})
	send(t, a, stale)
	send(t, a, stale)
	require.True(t, a.banner.Visible)
	require.Equal(t, 1, a.banner.Raised)
	require.Contains(t, a.View(), "1.1.0")

	press(t, a, "ctrl+r")
	require.False(t, a.banner.Visible)
	require.Equal(t, []string{"1.1.0"}, env.acks.versions)
	require.Equal(t, viewStart, a.state)
	require.Equal(t, "reloaded at version 1.1.0", a.status)

	// without a banner ctrl+r does nothing
	press(t, a, "ctrl+r")
	require.Len(t, env.acks.versions, 1)
}

func TestPanicShowsCrashScreen(t *testing.T) {
	validators := flow.Validators{
		flow.StepBroker: func(flow.Step, flow.StepData) error { panic("validator exploded") },
	}
	env := newTestApp(t, validators, nil)
	a := env.app

	press(t, a, "p", "enter")
	require.Equal(t, viewCrashed, a.state)
	view := a.View()
	require.Contains(t, view, "Something went wrong")
	require.NotContains(t, view, "validator exploded")

	press(t, a, "d")
	require.Contains(t, a.View(), "validator exploded")

	press(t, a, "r")
	require.Equal(t, viewStart, a.state)
	require.NotContains(t, a.View(), "Something went wrong")
}

func TestSettingsKeys(t *testing.T) {
	env := newTestApp(t, nil, nil)
	a := env.app
	require.Equal(t, "pt-BR", a.format.Tag())

	press(t, a, "ctrl+d")
	require.True(t, env.prefs.debug)
	require.Equal(t, "debug on", a.status)

	press(t, a, "ctrl+l")
	require.Equal(t, "pt-BR", env.prefs.locale)
	press(t, a, "ctrl+l")
	require.Equal(t, "en-US", env.prefs.locale)
	require.Equal(t, "en-US", a.format.Tag())

	press(t, a, "ctrl+k")
	require.Equal(t, "cleared 1,500 cached responses", a.status)
}

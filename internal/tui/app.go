package tui

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jask/planwizard/internal/config"
	"github.com/jask/planwizard/internal/database/repository"
	"github.com/jask/planwizard/internal/flow"
	"github.com/jask/planwizard/internal/locale"
	"github.com/jask/planwizard/internal/operator"
	"github.com/jask/planwizard/internal/version"
)

// App is the wizard model. All UI state lives here and is only mutated from Update.
type App struct {
	ctx  context.Context
	cfg  config.Config
	deps Deps
	log  *zap.Logger

	state  appState
	modal  modalState
	flow   *flow.Flow
	ops    *operator.Selection
	format *locale.Formatter

	startCursor int
	inputs      []textinput.Model
	specs       []fieldSpec
	focus       int
	pickerFocus bool
	opCursor    int
	search      textinput.Model

	banner version.Banner
	status string

	crashErr    string
	crashStack  string
	showDetails bool

	lastSubmission *repository.Submission
	tz             *time.Location
	width          int
}

// Deps are the collaborators the model calls out to. Operators may be nil, in
// which case picker steps fall back to a plain operator id field.
type Deps struct {
	Operators   operator.Source
	Issuance    Submitter
	Maintenance CacheCleaner
	Versions    Acknowledger
	Settings    Preferences
	Validators  flow.Validators
	Log         *zap.Logger
}

type Submitter interface {
	Submit(ctx context.Context, f *flow.Flow, locale string) (repository.Submission, error)
}

type CacheCleaner interface {
	ClearCaches(ctx context.Context) (int64, error)
}

type Acknowledger interface {
	Acknowledge(ctx context.Context, v string) error
}

// Preferences is the persisted debug flag and forced locale.
type Preferences interface {
	Debug() bool
	Locale() string
	SetDebug(ctx context.Context, on bool) error
	SetLocale(ctx context.Context, tag string) error
}

type appState string

const (
	viewStart   appState = "start"
	viewStep    appState = "step"
	viewDone    appState = "done"
	viewCrashed appState = "crashed"
)

type modalState string

const (
	modalNone           modalState = ""
	modalOperatorSearch modalState = "operatorSearch"
)

var formChoices = []flow.FormType{flow.FormPME, flow.FormIndividual}

// localeCycle is walked by ctrl+l; the empty entry clears the override.
var localeCycle = []string{"", "pt-BR", "en-US", "es-ES"}

// VersionMsg carries a staleness check result into the model.
type VersionMsg version.Result

type operatorsMsg operator.Page

type operatorsFailedMsg struct {
	page   int
	search string
	err    error
}

type submittedMsg struct{ sub repository.Submission }

type acknowledgedMsg struct{ version string }

type statusMsg string

type errMsg struct{ error }

func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		ctx:   ctx,
		cfg:   cfg,
		deps:  deps,
		log:   log,
		state: viewStart,
		flow:  flow.New(deps.Validators),
		ops:   operator.NewSelection(),
		tz:    time.Local,
	}
	if name := cfg.UI.Timezone; name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Debug("using local timezone", zap.String("timezone", name), zap.Error(err))
		} else {
			a.tz = loc
		}
	}
	a.rebuildFormatter()
	return a
}

func (a *App) Init() tea.Cmd {
	return nil
}

// Update recovers panics raised while handling a message and swaps the screen
// for the crash view.
func (a *App) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			a.crash(r)
			model, cmd = a, nil
		}
	}()
	return a.update(msg)
}

func (a *App) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
	case tea.KeyMsg:
		return a.handleKey(m)
	case VersionMsg:
		r := version.Result(m)
		before := a.banner.Raised
		a.banner = a.banner.Reduce(r)
		if a.banner.Raised != before {
			a.log.Info("refresh banner raised",
				zap.String("applied", r.Applied),
				zap.String("observed", r.Observed),
				zap.Int64("purged", r.Purged))
		}
	case operatorsMsg:
		if a.ops.Apply(operator.Page(m)) {
			if n := len(a.ops.Items()); a.opCursor >= n {
				a.opCursor = max(n-1, 0)
			}
		}
	case operatorsFailedMsg:
		a.log.Debug("operator fetch failed",
			zap.Int("page", m.page),
			zap.String("search", m.search),
			zap.Error(m.err))
		a.ops.LoadMoreFailed(m.page, m.search)
		a.status = "error: load operators: " + m.err.Error()
	case submittedMsg:
		sub := m.sub
		a.lastSubmission = &sub
		a.state = viewDone
		a.status = ""
	case acknowledgedMsg:
		a.status = "reloaded at version " + m.version
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.log.Debug("recoverable error", zap.Error(m.error))
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.state == viewCrashed {
		return a.handleCrashKey(m)
	}
	switch m.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "ctrl+r":
		if a.banner.Visible {
			return a, a.reload()
		}
		return a, nil
	case "ctrl+d":
		return a, a.toggleDebugCmd()
	case "ctrl+l":
		return a, a.cycleLocaleCmd()
	case "ctrl+k":
		return a, a.clearCachesCmd()
	}
	if a.modal == modalOperatorSearch {
		return a.handleSearchKey(m)
	}
	switch a.state {
	case viewStart:
		return a.handleStartKey(m)
	case viewDone:
		return a.handleDoneKey(m)
	}
	if a.flow.IsTerminal() {
		return a.handleReviewKey(m)
	}
	if a.pickerFocus {
		return a.handlePickerKey(m)
	}
	return a.handleStepKey(m)
}

func (a *App) handleStartKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		if a.startCursor > 0 {
			a.startCursor--
		}
	case "down", "j":
		if a.startCursor < len(formChoices)-1 {
			a.startCursor++
		}
	case "p":
		return a, a.begin(flow.FormPME)
	case "i":
		return a, a.begin(flow.FormIndividual)
	case "enter":
		return a, a.begin(formChoices[a.startCursor])
	}
	return a, nil
}

func (a *App) handleDoneKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q":
		return a, tea.Quit
	case "enter", "n":
		a.restart()
	}
	return a, nil
}

func (a *App) handleStepKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "enter":
		return a, a.advance()
	case "esc":
		return a, a.retreat()
	case "tab", "down":
		a.moveFocus(1)
		return a, nil
	case "shift+tab", "up":
		a.moveFocus(-1)
		return a, nil
	}
	if len(a.inputs) == 0 {
		return a, nil
	}
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(m)
	return a, cmd
}

func (a *App) handlePickerKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := a.ops.Items()
	switch m.String() {
	case "up", "k":
		if a.opCursor > 0 {
			a.opCursor--
		}
	case "down", "j":
		if a.opCursor < len(items)-1 {
			a.opCursor++
		}
	case "enter":
		if len(items) == 0 {
			return a, nil
		}
		a.ops.Select(items[a.opCursor].ID)
		a.moveFocus(1)
	case "/":
		a.modal = modalOperatorSearch
		a.search = newInput(fieldSpec{placeholder: "name or ANS code"}, a.ops.Search())
		a.search.Focus()
	case "m":
		if a.ops.LoadMore() {
			a.status = "loading more operators..."
			return a, a.fetchOperators()
		}
		a.status = "no more operators"
	case "x":
		a.ops.Clear()
		a.opCursor = 0
		return a, a.fetchOperators()
	case "tab":
		a.moveFocus(1)
	case "shift+tab":
		a.moveFocus(-1)
	case "esc":
		return a, a.retreat()
	}
	return a, nil
}

func (a *App) handleSearchKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.modal = modalNone
		return a, nil
	case "enter":
		a.modal = modalNone
		a.ops.SetSearch(a.search.Value())
		a.opCursor = 0
		return a, a.fetchOperators()
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(m)
	return a, cmd
}

func (a *App) handleReviewKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := m.String()
	switch key {
	case "enter":
		a.status = "submitting..."
		return a, a.submitCmd()
	case "esc":
		return a, a.retreat()
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		if err := a.flow.GoToStep(int(key[0] - '1')); err != nil {
			a.status = err.Error()
			return a, nil
		}
		return a, a.enterStep()
	}
	return a, nil
}

func (a *App) handleCrashKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "d":
		a.showDetails = !a.showDetails
	case "r":
		return a, a.reload()
	}
	return a, nil
}

func (a *App) begin(t flow.FormType) tea.Cmd {
	if !a.flow.SelectFormType(t) {
		return nil
	}
	a.state = viewStep
	a.status = ""
	a.log.Info("wizard started", zap.String("form_type", string(t)))
	return a.enterStep()
}

// restart returns to the form type choice with a fresh flow and operator list.
func (a *App) restart() {
	a.flow.Reset()
	a.ops = operator.NewSelection()
	a.state = viewStart
	a.modal = modalNone
	a.inputs, a.specs = nil, nil
	a.focus, a.opCursor, a.startCursor = 0, 0, 0
	a.pickerFocus = false
	a.lastSubmission = nil
}

// reload is the full restart offered by the refresh banner and the crash screen.
// A visible banner is dismissed and its observed version recorded as applied.
func (a *App) reload() tea.Cmd {
	a.crashErr, a.crashStack, a.showDetails = "", "", false
	a.restart()
	a.status = ""
	if !a.banner.Visible {
		return nil
	}
	observed := a.banner.Observed
	a.banner = a.banner.Dismiss()
	return a.acknowledgeCmd(observed)
}

// enterStep rebuilds the inputs for the current step from stored data.
func (a *App) enterStep() tea.Cmd {
	step := a.flow.Current()
	data := a.flow.Data(step)
	a.specs = fieldsFor(step, a.hasSource())
	a.inputs = make([]textinput.Model, len(a.specs))
	for i, spec := range a.specs {
		a.inputs[i] = newInput(spec, data[spec.key])
	}
	a.focus = 0
	a.pickerFocus = a.showsPicker()
	a.syncFocus()
	a.logState()

	if a.showsPicker() && len(a.ops.Items()) == 0 {
		return a.fetchOperators()
	}
	return nil
}

func (a *App) advance() tea.Cmd {
	a.commit()
	if err := a.flow.Advance(); err != nil {
		a.status = err.Error()
		a.focusField(err)
		return nil
	}
	a.status = ""
	return a.enterStep()
}

func (a *App) retreat() tea.Cmd {
	if a.flow.Current() != flow.StepReview {
		a.commit()
	}
	if !a.flow.Retreat() {
		a.restart()
		return nil
	}
	a.status = ""
	return a.enterStep()
}

// commit stores the visible input values into the flow.
func (a *App) commit() {
	step := a.flow.Current()
	if step == "" || step == flow.StepReview {
		return
	}
	data := flow.StepData{}
	for i, spec := range a.specs {
		data[spec.key] = strings.TrimSpace(a.inputs[i].Value())
	}
	if a.showsPicker() {
		data[flow.FieldOperatorID] = a.ops.SelectedID()
	}
	a.flow.SetData(step, data)
}

func (a *App) focusField(err error) {
	var verr *flow.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	if verr.Field == flow.FieldOperatorID && a.showsPicker() {
		a.pickerFocus = true
		a.syncFocus()
		return
	}
	for i, spec := range a.specs {
		if spec.key == verr.Field {
			a.focus = i
			a.pickerFocus = false
			a.syncFocus()
			return
		}
	}
}

// moveFocus cycles through the picker (when shown) and the inputs.
func (a *App) moveFocus(delta int) {
	slots := len(a.inputs)
	pos := a.focus
	if a.showsPicker() {
		slots++
		if a.pickerFocus {
			pos = 0
		} else {
			pos = a.focus + 1
		}
	}
	if slots == 0 {
		return
	}
	pos = ((pos+delta)%slots + slots) % slots
	if a.showsPicker() {
		a.pickerFocus = pos == 0
		if !a.pickerFocus {
			a.focus = pos - 1
		}
	} else {
		a.focus = pos
	}
	a.syncFocus()
}

func (a *App) syncFocus() {
	for i := range a.inputs {
		if i == a.focus && !a.pickerFocus {
			a.inputs[i].Focus()
		} else {
			a.inputs[i].Blur()
		}
	}
}

func (a *App) hasSource() bool { return a.deps.Operators != nil }

func (a *App) showsPicker() bool {
	return a.hasSource() && pickerSteps[a.flow.Current()]
}

func (a *App) logState() {
	if !a.log.Core().Enabled(zap.DebugLevel) {
		return
	}
	a.log.Debug("flow state", zap.String("state", a.flow.Snapshot().Dump()))
}

func (a *App) crash(r any) {
	a.crashErr = fmt.Sprint(r)
	a.crashStack = string(debug.Stack())
	a.state = viewCrashed
	a.modal = modalNone
	a.log.Error("render failure", zap.String("error", a.crashErr), zap.String("stack", a.crashStack))
}

func (a *App) rebuildFormatter() {
	forced := ""
	if a.deps.Settings != nil {
		forced = a.deps.Settings.Locale()
	}
	a.format = locale.NewFormatter(forced, a.cfg.UI.DefaultLocale, a.log)
}

// commands
func (a *App) fetchOperators() tea.Cmd {
	src := a.deps.Operators
	if src == nil {
		return nil
	}
	page, search := a.ops.Page(), a.ops.Search()
	return func() tea.Msg {
		p, err := src.Fetch(a.ctx, page, search)
		if err != nil {
			return operatorsFailedMsg{page: page, search: search, err: err}
		}
		return operatorsMsg(p)
	}
}

func (a *App) submitCmd() tea.Cmd {
	if a.deps.Issuance == nil {
		return func() tea.Msg { return errMsg{fmt.Errorf("issuance not configured")} }
	}
	// Submit reads the flow, so it runs before the command returns to the loop.
	sub, err := a.deps.Issuance.Submit(a.ctx, a.flow, a.format.Tag())
	return func() tea.Msg {
		if err != nil {
			return errMsg{err}
		}
		return submittedMsg{sub: sub}
	}
}

func (a *App) acknowledgeCmd(v string) tea.Cmd {
	if a.deps.Versions == nil {
		return nil
	}
	acks := a.deps.Versions
	return func() tea.Msg {
		if err := acks.Acknowledge(a.ctx, v); err != nil {
			return errMsg{err}
		}
		return acknowledgedMsg{version: v}
	}
}

func (a *App) toggleDebugCmd() tea.Cmd {
	prefs := a.deps.Settings
	if prefs == nil {
		return nil
	}
	on := !prefs.Debug()
	if err := prefs.SetDebug(a.ctx, on); err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	if on {
		a.logState()
		return func() tea.Msg { return statusMsg("debug on") }
	}
	return func() tea.Msg { return statusMsg("debug off") }
}

func (a *App) cycleLocaleCmd() tea.Cmd {
	prefs := a.deps.Settings
	if prefs == nil {
		return nil
	}
	next := localeCycle[0]
	for i, tag := range localeCycle {
		if tag == prefs.Locale() {
			next = localeCycle[(i+1)%len(localeCycle)]
			break
		}
	}
	if err := prefs.SetLocale(a.ctx, next); err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	a.rebuildFormatter()
	label := next
	if label == "" {
		label = "default (" + a.format.Tag() + ")"
	}
	return func() tea.Msg { return statusMsg("locale " + label) }
}

func (a *App) clearCachesCmd() tea.Cmd {
	if a.deps.Maintenance == nil {
		return nil
	}
	maint, format := a.deps.Maintenance, a.format
	return func() tea.Msg {
		n, err := maint.ClearCaches(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg(fmt.Sprintf("cleared %s cached responses", format.Count(int(n))))
	}
}

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/san-kum/atsform/internal/backend"
	"github.com/san-kum/atsform/internal/form"
	"github.com/san-kum/atsform/internal/frontend"
	"github.com/san-kum/atsform/internal/imagecheck"
)

type page int

const (
	pageParams page = iota
	pageGraphic
	pageDisturbances
	pageDiagrams
	pageCount
)

var pageTitles = [pageCount]string{"Параметры", "График", "Возмущения", "Диаграммы"}

var pageWatches = map[page]imagecheck.Watch{
	pageGraphic:      imagecheck.Graphic,
	pageDisturbances: imagecheck.Disturbances,
	pageDiagrams:     imagecheck.Diagrams,
}

// Checker verifies a results page.
type Checker interface {
	Check(ctx context.Context, w imagecheck.Watch) (imagecheck.Report, error)
}

// Clearer removes the charts rendered by the service.
type Clearer interface {
	Clear(ctx context.Context) error
}

type (
	loadedMsg struct {
		state form.State
		err   error
	}
	submittedMsg struct {
		res backend.Result
		err error
	}
	checkedMsg struct {
		page   page
		report imagecheck.Report
		err    error
	}
	clearedMsg struct{ err error }
	// NavigateMsg moves the UI to the page served at Path.
	NavigateMsg struct{ Path string }
	spinMsg     time.Time
)

type model struct {
	page    page
	form    *frontend.Page
	checker Checker
	clearer Clearer
	log     *zap.Logger

	state   form.State
	fields  []form.FieldID
	cursor  int
	editing bool
	editBuf string

	submitting bool
	frame      int
	preview    bool
	message    string

	reports  map[page]imagecheck.Report
	checkErr map[page]error
	checking bool

	width  int
	height int
}

// Options wires the UI to its collaborators. Checker and Clearer may be nil.
type Options struct {
	Checker Checker
	Clearer Clearer
	Logger  *zap.Logger
}

func newModel(p *frontend.Page, opts Options) model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	st := p.State()
	return model{
		page:     pageParams,
		form:     p,
		checker:  opts.Checker,
		clearer:  opts.Clearer,
		log:      logger.Named("tui"),
		state:    st,
		fields:   form.Fields(st.Layout()),
		reports:  map[page]imagecheck.Report{},
		checkErr: map[page]error{},
		width:    100,
		height:   40,
	}
}

func (m model) Init() tea.Cmd {
	p := m.form
	return func() tea.Msg {
		st, err := p.Load()
		return loadedMsg{state: st, err: err}
	}
}

func spin() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return spinMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.state = msg.state
		m.fields = form.Fields(msg.state.Layout())
		if msg.err != nil {
			m.message = "хранилище: " + msg.err.Error()
		}
		return m, nil
	case submittedMsg:
		m.submitting = false
		m.state = m.form.State()
		switch {
		case msg.err != nil:
			m.message = "хранилище: " + msg.err.Error()
		case msg.res.Detail != "":
			m.message = msg.res.Detail
		default:
			m.message = ""
		}
		return m, nil
	case spinMsg:
		if !m.submitting && !m.checking {
			return m, nil
		}
		m.frame++
		return m, spin()
	case NavigateMsg:
		return m.navigate(msg.Path)
	case checkedMsg:
		m.checking = false
		m.reports[msg.page] = msg.report
		m.checkErr[msg.page] = msg.err
		return m, nil
	case clearedMsg:
		if msg.err != nil {
			m.message = "очистка: " + msg.err.Error()
		} else {
			m.message = "графики удалены"
			m.reports = map[page]imagecheck.Report{}
			m.checkErr = map[page]error{}
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.page == pageParams {
		return m.paramsKey(msg)
	}
	return m.resultsKey(msg)
}

func (m model) paramsKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			id := m.fields[m.cursor]
			if err := m.form.SetField(id, m.editBuf); err != nil {
				m.message = err.Error()
			}
			m.state = m.form.State()
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if r := []rune(m.editBuf); len(r) > 0 {
				m.editBuf = string(r[:len(r)-1])
			}
		default:
			if len(msg.Runes) == 1 {
				c := msg.Runes[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.fields)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.fields) - 1
	case "enter", " ":
		if len(m.fields) == 0 {
			break
		}
		m.editing = true
		m.editBuf, _ = m.state.Value(m.fields[m.cursor])
	case "r":
		st, err := m.form.Randomize()
		m.state = st
		m.message = ""
		if err != nil {
			m.message = "хранилище: " + err.Error()
		}
	case "d":
		st, err := m.form.ApplyPreset("document")
		m.state = st
		if err != nil {
			m.message = err.Error()
		}
	case "n":
		st, err := m.form.ApplyPreset("neutral")
		m.state = st
		if err != nil {
			m.message = err.Error()
		}
	case "p":
		m.preview = !m.preview
	case "c":
		return m.calculate()
	case "x":
		return m.clear()
	case "tab":
		return m.switchTo(pageGraphic)
	case "shift+tab":
		return m.switchTo(pageDiagrams)
	case "2", "3", "4":
		return m.switchTo(page(msg.String()[0] - '1'))
	}
	return m, nil
}

func (m model) resultsKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "1":
		return m.switchTo(pageParams)
	case "tab":
		return m.switchTo((m.page + 1) % pageCount)
	case "shift+tab":
		return m.switchTo((m.page + pageCount - 1) % pageCount)
	case "2", "3", "4":
		return m.switchTo(page(msg.String()[0] - '1'))
	case "r":
		return m.check(m.page)
	case "x":
		return m.clear()
	}
	return m, nil
}

// calculate is the "Рассчитать" button.
func (m model) calculate() (model, tea.Cmd) {
	m.submitting = true
	m.message = ""
	m.state.Status = form.StatusPending
	p := m.form
	submit := func() tea.Msg {
		res, err := p.Submit(context.Background())
		return submittedMsg{res: res, err: err}
	}
	return m, tea.Batch(submit, spin())
}

func (m model) clear() (model, tea.Cmd) {
	if m.clearer == nil {
		return m, nil
	}
	c := m.clearer
	return m, func() tea.Msg { return clearedMsg{err: c.Clear(context.Background())} }
}

func (m model) navigate(path string) (model, tea.Cmd) {
	if path == "/" {
		return m.switchTo(pageParams)
	}
	w, err := imagecheck.Lookup(path)
	if err != nil {
		m.log.Warn("navigation to unknown page", zap.String("path", path))
		return m, nil
	}
	for p, pw := range pageWatches {
		if pw.Name == w.Name {
			return m.switchTo(p)
		}
	}
	return m, nil
}

func (m model) switchTo(p page) (model, tea.Cmd) {
	if p < 0 || p >= pageCount {
		return m, nil
	}
	m.page = p
	m.editing = false
	if p == pageParams {
		// the parameter page reloads like a fresh visit
		return m, m.Init()
	}
	return m.check(p)
}

func (m model) check(p page) (model, tea.Cmd) {
	w, ok := pageWatches[p]
	if !ok || m.checker == nil {
		return m, nil
	}
	m.checking = true
	c := m.checker
	run := func() tea.Msg {
		rep, err := c.Check(context.Background(), w)
		return checkedMsg{page: p, report: rep, err: err}
	}
	return m, tea.Batch(run, spin())
}

// Package frontend drives the parameter page: load, randomize, edit and
// submit, and the delayed move to the results page after a finished run.
package frontend

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/atsform/internal/backend"
	"github.com/san-kum/atsform/internal/form"
)

// NavigationDelay is how long a finished run stays on the parameter page.
const NavigationDelay = time.Second

// Submitter sends a collected form to the simulation service.
type Submitter interface {
	Submit(ctx context.Context, req form.Request) backend.Result
}

// Navigator moves the user to another page of the service.
type Navigator interface {
	Navigate(path string)
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. time.AfterFunc is the production scheduler.
type Scheduler func(d time.Duration, f func()) Timer

func realScheduler(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Options struct {
	Layout      form.Layout
	Rand        form.Rand
	Scheduler   Scheduler
	ResultsPath string
	Delay       time.Duration
	Logger      *zap.Logger
}

// Page is one load of the parameter page. Its methods may be called from
// several goroutines; overlapping submissions are not serialized and the last
// response to arrive decides the status line.
type Page struct {
	mu        sync.Mutex
	state     form.State
	store     form.Store
	submitter Submitter
	nav       Navigator
	opts      Options
	log       *zap.Logger
	rngMu     sync.Mutex
}

func New(store form.Store, submitter Submitter, nav Navigator, opts Options) *Page {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Scheduler == nil {
		opts.Scheduler = realScheduler
	}
	if opts.ResultsPath == "" {
		opts.ResultsPath = backend.DefaultResultsPath
	}
	if opts.Delay <= 0 {
		opts.Delay = NavigationDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{
		state:     form.NewState(opts.Layout),
		store:     store,
		submitter: submitter,
		nav:       nav,
		opts:      opts,
		log:       logger.Named("page"),
	}
}

// State returns a copy of the current form.
func (p *Page) State() form.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Load runs restore-or-randomize. Call it once per page load.
func (p *Page) Load() (form.State, error) {
	p.rngMu.Lock()
	st, err := form.Load(p.store, p.opts.Layout, p.opts.Rand)
	p.rngMu.Unlock()

	p.mu.Lock()
	p.state = st
	p.mu.Unlock()

	if err != nil {
		p.log.Error("load failed", zap.Error(err))
		return st, err
	}
	p.log.Debug("page loaded", zap.String("status", st.Status))
	return st, nil
}

// Resume reads the stored fields as they are, without the randomize branch
// of Load. Used when fields were edited outside this page.
func (p *Page) Resume() (form.State, error) {
	st, err := form.Restore(p.store, p.opts.Layout)
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
	return st, err
}

// Randomize fills every field with fresh random values.
func (p *Page) Randomize() (form.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rngMu.Lock()
	st, err := form.Randomize(p.opts.Rand, p.store, p.state)
	p.rngMu.Unlock()
	p.state = st
	return st, err
}

// SetField edits one field as the user would by typing into it.
func (p *Page) SetField(id form.FieldID, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Set(id, value)
}

// ApplyPreset overwrites disturbances and equations with a named preset.
func (p *Page) ApplyPreset(name string) (form.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, err := form.ApplyPreset(p.state, name)
	if err != nil {
		return p.state, err
	}
	p.state = st
	return st, nil
}

// Submit collects the form, persists it, posts it and records the returned
// status. A finished run schedules navigation to the results page after the
// configured delay; any other status leaves the user on this page.
func (p *Page) Submit(ctx context.Context) (backend.Result, error) {
	p.mu.Lock()
	req, st := form.Collect(p.state)
	if err := form.Persist(p.store, st); err != nil {
		p.mu.Unlock()
		return backend.Result{}, err
	}
	st.Status = form.StatusPending
	p.state = st
	p.mu.Unlock()

	res := p.submitter.Submit(ctx, req)

	p.mu.Lock()
	st, err := form.SaveStatus(p.store, p.state, res.Status)
	p.state = st
	p.mu.Unlock()
	if err != nil {
		return res, err
	}

	if res.Done() {
		path := p.opts.ResultsPath
		p.opts.Scheduler(p.opts.Delay, func() { p.nav.Navigate(path) })
		p.log.Info("run finished", zap.String("next", path), zap.Duration("delay", p.opts.Delay))
	} else {
		p.log.Warn("run not finished",
			zap.String("status", res.Status),
			zap.Stringer("kind", res.Kind),
			zap.String("detail", res.Detail))
	}
	return res, nil
}

// Package tui is the terminal version of the parameter and results pages.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/atsform/internal/backend"
	"github.com/san-kum/atsform/internal/form"
	"github.com/san-kum/atsform/internal/frontend"
	"github.com/san-kum/atsform/internal/imagecheck"
)

// Run opens the parameter page over store and client and blocks until the
// user quits.
func Run(store form.Store, client *backend.Client, opts frontend.Options) error {
	var prog *tea.Program
	nav := frontend.NavigatorFunc(func(path string) {
		if prog != nil {
			prog.Send(NavigateMsg{Path: path})
		}
	})

	p := frontend.New(store, client, nav, opts)
	m := newModel(p, Options{
		Checker: imagecheck.New(client, opts.Logger),
		Clearer: client,
		Logger:  opts.Logger,
	})
	prog = tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

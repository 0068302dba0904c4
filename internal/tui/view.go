package tui

import (
	"fmt"
	"strings"

	"github.com/san-kum/atsform/internal/form"
	"github.com/san-kum/atsform/internal/imagecheck"
	"github.com/san-kum/atsform/internal/viz"
)

var sectionTitles = [3]string{
	"Возмущения  F(t) = a + b·t",
	"Начальные условия и ограничения",
	"Уравнения  f(X) = k·X + b",
}

type line struct {
	text  string
	field bool
	first int
	last  int
}

func section(id form.FieldID) int {
	switch id.Group {
	case form.GroupFak:
		return 0
	case form.GroupInitial, form.GroupRestriction:
		return 1
	}
	return 2
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString("\n  " + m.viewTabs() + "\n\n")
	if m.page == pageParams {
		b.WriteString(m.viewParams())
	} else {
		b.WriteString(m.viewResults())
	}
	return b.String()
}

func (m model) viewTabs() string {
	tabs := make([]string, 0, pageCount)
	for p := page(0); p < pageCount; p++ {
		title := fmt.Sprintf("%d %s", p+1, pageTitles[p])
		if p == m.page {
			tabs = append(tabs, viz.ActiveTab.Render(title))
		} else {
			tabs = append(tabs, viz.Tab.Render(title))
		}
	}
	return strings.Join(tabs, " ")
}

func (m model) viewParams() string {
	var b strings.Builder

	status := m.state.Status
	if status == "" {
		status = " "
	}
	spinner := ""
	if m.submitting {
		spinner = " " + viz.Spinner(m.frame)
	}
	b.WriteString("  " + viz.Label.Render("Статус: ") + viz.StatusStyle(status).Render(status) + spinner + "\n")
	if m.message != "" {
		b.WriteString("  " + viz.Subtle.Render(m.message) + "\n")
	}
	b.WriteString("\n")

	lines := m.paramLines()
	cur := 0
	for i, l := range lines {
		if l.field && m.cursor >= l.first && m.cursor <= l.last {
			cur = i
		}
	}
	visible := m.height - 10
	if m.preview {
		visible -= 16
	}
	if visible < 6 {
		visible = 6
	}
	start := 0
	if len(lines) > visible {
		start = cur - visible/2
		if start < 0 {
			start = 0
		}
		if start > len(lines)-visible {
			start = len(lines) - visible
		}
	}
	end := start + visible
	if end > len(lines) {
		end = len(lines)
	}
	for _, l := range lines[start:end] {
		b.WriteString(l.text + "\n")
	}

	if m.preview {
		b.WriteString("\n" + viz.BoxWithTitle("Предпросмотр возмущений", viz.DisturbancePreview(m.state, 50, 8), 64) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(viz.KeyHint.Render("  ↑↓ select  enter edit  r random  d document  n neutral  p preview  c calculate  x clear  tab pages  q quit") + "\n")
	return b.String()
}

func (m model) paramLines() []line {
	var lines []line
	prevSection := -1
	for i := 0; i < len(m.fields); {
		id := m.fields[i]
		sec := section(id)
		if sec != prevSection {
			if prevSection >= 0 {
				lines = append(lines, line{})
			}
			lines = append(lines, line{text: "  " + viz.Header.Render(sectionTitles[sec])})
			prevSection = sec
		}

		j := i
		for j+1 < len(m.fields) && section(m.fields[j+1]) == sec && m.fields[j+1].Index == id.Index {
			j++
		}
		cells := make([]string, 0, j-i+1)
		for k := i; k <= j; k++ {
			cells = append(cells, m.cell(k))
		}
		text := "    " + strings.Join(cells, "   ")
		if note := rowNote(id); note != "" {
			text += "   " + viz.Subtle.Render(note)
		}
		lines = append(lines, line{text: text, field: true, first: i, last: j})
		i = j + 1
	}
	return lines
}

func rowNote(id form.FieldID) string {
	switch id.Group {
	case form.GroupFak:
		return form.FactorLabels[id.Index-1]
	case form.GroupInitial, form.GroupRestriction:
		return form.VariableLabels[id.Index-1]
	}
	return ""
}

func (m model) cell(i int) string {
	id := m.fields[i]
	v, _ := m.state.Value(id)
	var value string
	switch {
	case m.editing && i == m.cursor:
		value = viz.Editing.Render(fmt.Sprintf("%-6s", m.editBuf+"▋"))
	case i == m.cursor:
		value = viz.Selected.Render(fmt.Sprintf("%-6s", blank(v)))
	default:
		value = viz.Value.Render(fmt.Sprintf("%-6s", blank(v)))
	}
	return viz.Label.Render(form.Describe(id)+" ") + value
}

func blank(v string) string {
	if v == "" {
		return "____"
	}
	return v
}

func (m model) viewResults() string {
	var b strings.Builder
	w := pageWatches[m.page]

	switch {
	case m.checker == nil:
		b.WriteString("  " + viz.Subtle.Render("нет подключения к серверу") + "\n")
	case m.checking:
		b.WriteString("  " + viz.StatusPending.Render(viz.Spinner(m.frame)+" проверка "+w.Page) + "\n")
	default:
		rep, seen := m.reports[m.page]
		err := m.checkErr[m.page]
		switch {
		case !seen:
			b.WriteString("  " + viz.Subtle.Render("r: проверить страницу") + "\n")
		case err != nil:
			b.WriteString("  " + viz.StatusFailed.Render(err.Error()) + "\n")
			b.WriteString(fallbackBox(w.Fallback))
		case !rep.Available():
			b.WriteString(fallbackBox(w.Fallback))
		default:
			for _, img := range rep.Images {
				b.WriteString("  " + viz.StatusDone.Render("● ") + viz.Value.Render(img.Src) + "\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(viz.KeyHint.Render("  r recheck  x clear  tab next  esc parameters  q quit") + "\n")
	return b.String()
}

func fallbackBox(fb imagecheck.Fallback) string {
	content := viz.StatusFailed.Render(fb.Title) + "\n" + fb.Text + "\n\n" + viz.KeyHint.Render("esc: "+fb.LinkText)
	return viz.BoxWithTitle(fb.Title, content, 72) + "\n"
}

// Package tui is a terminal front end for browsing and editing case records.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
	"github.com/couchcryptid/dengue-data-service/internal/listing"
	"github.com/couchcryptid/dengue-data-service/internal/pipeline"
)

// Service is the record pipeline as driven from the terminal.
type Service interface {
	Refresh(ctx context.Context) error
	Records() []domain.CaseRecord
	Regions() []domain.RegionAggregate
	BeginEdit(id string) (pipeline.Draft, error)
	UpdateDraft(in domain.RecordInput) error
	SubmitEdit(ctx context.Context) (domain.CaseRecord, error)
	CancelEdit()
	Delete(ctx context.Context, id string) error
}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeEdit
	modeRegions
)

// Form field order.
const (
	fieldLocation = iota
	fieldRegion
	fieldCases
	fieldDeaths
	fieldDate
	fieldCount
)

var fieldLabels = [fieldCount]string{"Location", "Region", "Cases", "Deaths", "Date"}

type refreshedMsg struct{ err error }

type submittedMsg struct {
	record domain.CaseRecord
	err    error
}

type deletedMsg struct {
	id  string
	err error
}

// Model is the bubbletea model for the record listing.
type Model struct {
	ctx context.Context
	svc Service

	view  listing.View
	page  listing.Page
	table table.Model

	search textinput.Model
	form   [fieldCount]textinput.Model
	focus  int

	mode    mode
	loading bool
	status  string
	err     error

	styles Styles
}

// New creates the model. Store calls issued from the UI run under ctx.
func New(ctx context.Context, svc Service) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Location", Width: 24},
			{Title: "Region", Width: 18},
			{Title: "Cases", Width: 8},
			{Title: "Deaths", Width: 8},
			{Title: "Date", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(domain.PageSize+1),
	)

	si := textinput.New()
	si.Placeholder = "Search location or region..."
	si.CharLimit = 64
	si.Width = 40

	m := Model{
		ctx:     ctx,
		svc:     svc,
		view:    listing.NewView(),
		table:   t,
		search:  si,
		loading: true,
		styles:  DefaultStyles(),
	}
	for i := range m.form {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 64
		in.Width = 30
		m.form[i] = in
	}
	m.form[fieldDate].Placeholder = "YYYY-MM-DD"
	return m
}

// Init loads the record set.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.status = fmt.Sprintf("Loaded %d records", len(m.svc.Records()))
		}
		m.render()
		return m, nil

	case submittedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.mode = modeBrowse
			m.status = "Saved " + msg.record.Location
		}
		m.render()
		return m, nil

	case deletedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.status = "Deleted record " + msg.id
		}
		m.render()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit:
			return m.updateForm(msg)
		case modeRegions:
			if s := msg.String(); s == "g" || s == "esc" || s == "q" {
				m.mode = modeBrowse
			}
			return m, nil
		default:
			return m.updateBrowse(msg)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		cmd := m.search.Focus()
		return m, cmd
	case "left", "h":
		if m.view.Prev(m.page.TotalPages) {
			m.render()
		}
		return m, nil
	case "right", "l":
		if m.view.Next(m.page.TotalPages) {
			m.render()
		}
		return m, nil
	case "g":
		m.mode = modeRegions
		return m, nil
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.refreshCmd()
	case "e":
		return m.beginEdit()
	case "d":
		rec, ok := m.selected()
		if !ok || m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.deleteCmd(rec.ID)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.view.SetSearch(m.search.Value())
	m.render()
	return m, cmd
}

func (m Model) beginEdit() (tea.Model, tea.Cmd) {
	rec, ok := m.selected()
	if !ok || m.loading {
		return m, nil
	}
	draft, err := m.svc.BeginEdit(rec.ID)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.mode = modeEdit
	m.err = nil
	m.form[fieldLocation].SetValue(draft.Input.Location)
	m.form[fieldRegion].SetValue(draft.Input.Region)
	m.form[fieldCases].SetValue(draft.Input.Cases)
	m.form[fieldDeaths].SetValue(draft.Input.Deaths)
	m.form[fieldDate].SetValue(draft.Input.ReportDate)
	cmd := m.focusField(fieldLocation)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.svc.CancelEdit()
		m.mode = modeBrowse
		m.err = nil
		m.status = "Edit cancelled"
		return m, nil
	case "enter":
		if m.loading {
			return m, nil
		}
		if err := m.svc.UpdateDraft(m.formInput()); err != nil {
			m.err = err
			return m, nil
		}
		m.loading = true
		return m, m.submitCmd()
	case "tab", "down":
		cmd := m.focusField((m.focus + 1) % fieldCount)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.focusField((m.focus + fieldCount - 1) % fieldCount)
		return m, cmd
	}

	var cmd tea.Cmd
	m.form[m.focus], cmd = m.form[m.focus].Update(msg)
	return m, cmd
}

// focusField moves keyboard focus to form field i.
func (m *Model) focusField(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.form {
		if j == i {
			cmd = m.form[j].Focus()
			continue
		}
		m.form[j].Blur()
	}
	return cmd
}

func (m Model) formInput() domain.RecordInput {
	return domain.RecordInput{
		Location:   m.form[fieldLocation].Value(),
		Region:     m.form[fieldRegion].Value(),
		Cases:      m.form[fieldCases].Value(),
		Deaths:     m.form[fieldDeaths].Value(),
		ReportDate: m.form[fieldDate].Value(),
	}
}

// selected returns the record under the table cursor on the current page.
func (m Model) selected() (domain.CaseRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.page.Records) {
		return domain.CaseRecord{}, false
	}
	return m.page.Records[i], true
}

// render rebuilds the current page from the pipeline's records.
func (m *Model) render() {
	m.page = m.view.Render(m.svc.Records())
	rows := make([]table.Row, 0, len(m.page.Records))
	for _, r := range m.page.Records {
		rows = append(rows, table.Row{
			r.Location, r.Region, strconv.Itoa(r.Cases), strconv.Itoa(r.Deaths), r.ReportDate,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return refreshedMsg{err: svc.Refresh(ctx)}
	}
}

func (m Model) submitCmd() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		rec, err := svc.SubmitEdit(ctx)
		return submittedMsg{record: rec, err: err}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return deletedMsg{id: id, err: svc.Delete(ctx, id)}
	}
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Dengue case records"))
	b.WriteString("\n")

	if m.mode == modeRegions {
		b.WriteString(m.regionsView())
	} else {
		b.WriteString("Search: ")
		if m.mode == modeSearch {
			b.WriteString(m.search.View())
		} else if term := m.view.SearchTerm(); term != "" {
			b.WriteString(term)
		} else {
			b.WriteString(m.styles.Footer.Render("(none)"))
		}
		b.WriteString("\n\n")
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render(fmt.Sprintf("Page %d of %d (%d records)",
			m.view.CurrentPage(), m.page.TotalPages, m.page.TotalItems)))
		b.WriteString("\n")
	}

	if m.mode == modeEdit {
		b.WriteString(m.formView())
		b.WriteString("\n")
	}

	switch {
	case m.loading:
		b.WriteString(m.styles.Loading.Render("Loading…"))
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(m.styles.Status.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.helpText()))
	return b.String()
}

func (m Model) formView() string {
	var b strings.Builder
	for i := range m.form {
		b.WriteString(m.styles.Label.Render(fieldLabels[i]))
		b.WriteString(m.form[i].View())
		if i < fieldCount-1 {
			b.WriteString("\n")
		}
	}
	return m.styles.Form.Render(b.String())
}

func (m Model) regionsView() string {
	var b strings.Builder
	for _, a := range m.svc.Regions() {
		band := domain.Classify(a.TotalCases)
		fmt.Fprintf(&b, "%-24s %8d cases %6d deaths  %s\n",
			a.Region, a.TotalCases, a.TotalDeaths, bandSwatch(band.String(), band.Color()))
	}
	if b.Len() == 0 {
		b.WriteString(m.styles.Footer.Render("No regions"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) helpText() string {
	switch m.mode {
	case modeSearch:
		return "type to filter • enter/esc done"
	case modeEdit:
		return "tab next field • enter save • esc cancel"
	case modeRegions:
		return "g/esc back"
	default:
		return "/ search • ←/→ page • e edit • d delete • r refresh • g regions • q quit"
	}
}

package tui

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
)

// Loader fetches one list page for the browser.
type Loader func(ctx context.Context, q core.ListQuery) (core.ListPage, error)

type keyMap struct {
	Left    key.Binding
	Right   key.Binding
	Sort    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Bigger  key.Binding
	Smaller key.Binding
	Reload  key.Binding
	Back    key.Binding
	Quit    key.Binding
}

var browserKeys = keyMap{
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev column")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next column")),
	Sort:    key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter/s", "sort")),
	Next:    key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
	Prev:    key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev page")),
	Bigger:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more rows")),
	Smaller: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "fewer rows")),
	Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() string {
	bindings := []key.Binding{k.Left, k.Right, k.Sort, k.Next, k.Prev, k.Bigger, k.Smaller, k.Reload, k.Back, k.Quit}
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		h := b.Help()
		parts[i] = h.Key + " " + h.Desc
	}
	return strings.Join(parts, " · ")
}

// loadedMsg carries a finished fetch. seq discards responses that a newer
// request has superseded.
type loadedMsg struct {
	seq  int
	page core.ListPage
	err  error
}

// backMsg asks the enclosing App to return to the menu.
type backMsg struct{}

// BrowserOptions configure a Browser.
type BrowserOptions struct {
	Query       core.ListQuery
	PageSizes   []int
	Locale      language.Tag
	LoadTimeout time.Duration
}

// Browser is an interactive, paginated view of one resource.
type Browser struct {
	def     core.Resource
	load    Loader
	opts    BrowserOptions
	query   core.ListQuery
	table   *datatable.Table[core.Record]
	paged   bool
	focus   int
	seq     int
	loading bool
	err     error
	spinner spinner.Model
}

// NewBrowser creates a browser for def. The first page is requested by Init.
func NewBrowser(def core.Resource, load Loader, opts BrowserOptions) Browser {
	if len(opts.PageSizes) == 0 {
		opts.PageSizes = []int{5, 10, 25, 50}
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	if opts.Locale == language.Und {
		opts.Locale = datatable.DefaultLocale
	}

	q := opts.Query
	q.Page = max(q.Page, 1)
	if !slices.Contains(opts.PageSizes, q.RowsPerPage) {
		q.RowsPerPage = opts.PageSizes[0]
	}
	q.Sort = datatable.Resolve(def.Columns, q.Sort)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = headerStyle

	t := datatable.New(datatable.Props[core.Record]{
		Columns:     def.Columns,
		Page:        q.Page,
		RowsPerPage: q.RowsPerPage,
		Loading:     true,
	}, datatable.WithLocale(opts.Locale), datatable.WithSort(q.Sort))

	return Browser{
		def:     def,
		load:    load,
		opts:    opts,
		query:   q,
		table:   t,
		seq:     1,
		loading: true,
		spinner: s,
	}
}

// Init starts the spinner and the first fetch.
func (b Browser) Init() tea.Cmd {
	return tea.Batch(b.spinner.Tick, b.fetchCmd())
}

// Query returns the current list state.
func (b Browser) Query() core.ListQuery {
	return b.query
}

func (b Browser) fetchCmd() tea.Cmd {
	seq, q, load, timeout := b.seq, b.query, b.load, b.opts.LoadTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		page, err := load(ctx, q)
		return loadedMsg{seq: seq, page: page, err: err}
	}
}

// reload issues a new fetch, superseding any in flight.
func (b Browser) reload() (Browser, tea.Cmd) {
	b.seq++
	wasLoading := b.loading
	b.loading = true
	cmds := []tea.Cmd{b.fetchCmd()}
	if !wasLoading {
		cmds = append(cmds, b.spinner.Tick)
	}
	return b, tea.Batch(cmds...)
}

// Update handles key presses and fetch results.
func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !b.loading {
			return b, nil
		}
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd

	case loadedMsg:
		if msg.seq != b.seq {
			return b, nil
		}
		b.loading = false
		b.err = msg.err
		if msg.err == nil {
			b.setPage(msg.page)
		} else {
			b.table.SetLoading(false)
		}
		return b, nil

	case backMsg:
		return b, tea.Quit

	case tea.KeyMsg:
		return b.handleKey(msg)
	}
	return b, nil
}

func (b Browser) handleKey(msg tea.KeyMsg) (Browser, tea.Cmd) {
	headers := printable(b.table.View().Headers)

	switch {
	case key.Matches(msg, browserKeys.Quit):
		return b, tea.Quit

	case key.Matches(msg, browserKeys.Back):
		return b, func() tea.Msg { return backMsg{} }

	case key.Matches(msg, browserKeys.Left):
		b.focus = max(b.focus-1, 0)

	case key.Matches(msg, browserKeys.Right):
		b.focus = min(b.focus+1, max(len(headers)-1, 0))

	case key.Matches(msg, browserKeys.Sort):
		if b.focus >= len(headers) {
			return b, nil
		}
		before := b.query.Sort
		b.query.Sort = b.table.ClickHeader(headers[b.focus].Key)
		if b.query.Sort == before {
			return b, nil
		}
		b.query.Page = 1
		return b.apply()

	case key.Matches(msg, browserKeys.Next):
		if pg := b.table.Pagination(); pg.HasNext() {
			b.query.Page = pg.Page + 1
			return b.apply()
		}

	case key.Matches(msg, browserKeys.Prev):
		if pg := b.table.Pagination(); pg.HasPrev() {
			b.query.Page = pg.Page - 1
			return b.apply()
		}

	case key.Matches(msg, browserKeys.Bigger):
		return b.resize(+1)

	case key.Matches(msg, browserKeys.Smaller):
		return b.resize(-1)

	case key.Matches(msg, browserKeys.Reload):
		return b.reload()
	}
	return b, nil
}

// resize steps through the page size options and returns to the first page.
func (b Browser) resize(step int) (Browser, tea.Cmd) {
	i := slices.Index(b.opts.PageSizes, b.query.RowsPerPage) + step
	if i < 0 || i >= len(b.opts.PageSizes) {
		return b, nil
	}
	b.query.RowsPerPage = b.opts.PageSizes[i]
	b.query.Page = 1
	return b.apply()
}

// apply pushes the query into the table. Server-paged resources need a new
// fetch; everything else is sliced locally.
func (b Browser) apply() (Browser, tea.Cmd) {
	if b.paged {
		return b.reload()
	}
	p := b.table.Props()
	p.Page = b.query.Page
	p.RowsPerPage = b.query.RowsPerPage
	b.table.SetProps(p)
	return b, nil
}

func (b *Browser) setPage(page core.ListPage) {
	idField := b.def.IDField()
	props := datatable.Props[core.Record]{
		Columns:      b.def.Columns,
		Rows:         page.Rows,
		Page:         b.query.Page,
		RowsPerPage:  b.query.RowsPerPage,
		PaginateRows: !page.Paged,
		RowKey:       func(r core.Record) string { return r.ID(idField) },
	}
	if page.Paged {
		total := page.Total
		props.TotalRows = &total
	}
	b.table.SetProps(props)
	b.paged = page.Paged
	b.query.Page = b.table.Pagination().Page
}

// View renders the title, status line, table and key help.
func (b Browser) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(b.def.Info.Label))
	s.WriteByte('\n')

	switch {
	case b.loading:
		s.WriteString(b.spinner.View() + " Loading " + strings.ToLower(b.def.Info.Label) + "…")
	case b.err != nil:
		s.WriteString(errorStyle.Render(core.FormatUserError(b.err)))
	case b.query.Search != "":
		s.WriteString(mutedStyle.Render("Filter: " + b.query.Search))
	}
	s.WriteString("\n\n")

	s.WriteString(RenderTable(b.table.View(), b.focus))
	s.WriteString("\n\n")
	s.WriteString(mutedStyle.Render(browserKeys.help()))
	s.WriteByte('\n')
	return s.String()
}

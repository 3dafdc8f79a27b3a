// Package tui implements the interactive page browser of the ipam command.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/hooks"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// Column maps an item to one table cell.
type Column[T any] struct {
	Title string
	Width int
	Value func(T) string
}

// BrowserKeyMap defines key bindings for the browser.
type BrowserKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Reload key.Binding
	Quit   key.Binding
}

// DefaultBrowserKeyMap returns the default key bindings.
func DefaultBrowserKeyMap() BrowserKeyMap {
	return BrowserKeyMap{
		Next: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n/→", "next page"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p/←", "previous page"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type stateMsg[T any] struct {
	state hooks.State[ipam.ListResponse[T]]
}

// Browser pages through a collection with a CachingAPI. Pages around the
// displayed one are prefetched, so paging forward is usually instant.
type Browser[T any] struct {
	title    string
	api      *hooks.CachingAPI[ipam.ListResponse[T]]
	endpoint hooks.Endpoint[ipam.ListResponse[T]]
	params   ipam.Params
	columns  []Column[T]
	keyMap   BrowserKeyMap

	page     int
	pageSize int
	prefetch int

	state       hooks.State[ipam.ListResponse[T]]
	updates     chan hooks.State[ipam.ListResponse[T]]
	unsubscribe func()
	table       table.Model
}

// BrowserOption configures a Browser.
type BrowserOption func(*browserOptions)

type browserOptions struct {
	pageSize int
	prefetch int
	hookOpts []hooks.Option
}

// WithPageSize sets the number of rows per page.
func WithPageSize(size int) BrowserOption {
	return func(o *browserOptions) {
		o.pageSize = size
	}
}

// WithPrefetch sets how many pages, the displayed one included, are loaded.
func WithPrefetch(pages int) BrowserOption {
	return func(o *browserOptions) {
		o.prefetch = pages
	}
}

// WithHookOptions passes options to the underlying CachingAPI.
func WithHookOptions(opts ...hooks.Option) BrowserOption {
	return func(o *browserOptions) {
		o.hookOpts = append(o.hookOpts, opts...)
	}
}

// NewBrowser creates a browser over endpoint. The first page is requested by Init.
func NewBrowser[T any](
	title string,
	endpoint hooks.Endpoint[ipam.ListResponse[T]],
	params ipam.Params,
	columns []Column[T],
	opts ...BrowserOption,
) (*Browser[T], error) {
	o := browserOptions{
		pageSize: ipam.DefaultPageSize,
		prefetch: constants.DefaultPrefetch,
	}

	for _, opt := range opts {
		opt(&o)
	}

	api, err := hooks.NewCachingAPI[ipam.ListResponse[T]](nil, o.hookOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}

	tableColumns := make([]table.Column, 0, len(columns))
	for _, col := range columns {
		tableColumns = append(tableColumns, table.Column{Title: col.Title, Width: col.Width})
	}

	styles := tableStyles()

	// The table height includes the header, which has a bottom border.
	t := table.New(
		table.WithColumns(tableColumns),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
	t.SetHeight(o.pageSize + lipgloss.Height(styles.Header.Render(" ")))

	b := &Browser[T]{
		title:    title,
		api:      api,
		endpoint: endpoint,
		params:   params,
		columns:  columns,
		keyMap:   DefaultBrowserKeyMap(),
		page:     1,
		pageSize: o.pageSize,
		prefetch: o.prefetch,
		updates:  make(chan hooks.State[ipam.ListResponse[T]], 1),
		table:    t,
	}

	b.unsubscribe = api.Subscribe(b.offer)

	return b, nil
}

// offer keeps only the newest state in the buffer. It never blocks, since it
// runs on the hook's notification path.
func (b *Browser[T]) offer(state hooks.State[ipam.ListResponse[T]]) {
	for {
		select {
		case b.updates <- state:
			return
		default:
		}

		select {
		case <-b.updates:
		default:
		}
	}
}

func (b *Browser[T]) waitForState() tea.Msg {
	return stateMsg[T]{state: <-b.updates}
}

// Page returns the displayed page number.
func (b *Browser[T]) Page() int {
	return b.page
}

// Close stops the subscription and cancels outstanding requests.
func (b *Browser[T]) Close() {
	b.unsubscribe()
	b.api.Close()
}

func (b *Browser[T]) request() {
	b.api.Update(b.endpoint, b.page, b.pageSize, b.params, b.prefetch)
}

func (b *Browser[T]) totalPages() int {
	if b.state.Data == nil {
		return 0
	}

	return b.state.Data.TotalPages(b.pageSize)
}

func (b *Browser[T]) hasNext() bool {
	if b.state.Data == nil {
		return false
	}

	return b.state.Data.HasNext() || b.page < b.totalPages()
}

func (b *Browser[T]) setState(state hooks.State[ipam.ListResponse[T]]) {
	b.state = state

	var rows []table.Row

	if state.Data != nil {
		for _, item := range state.Data.Results {
			row := make(table.Row, 0, len(b.columns))
			for _, col := range b.columns {
				row = append(row, col.Value(item))
			}

			rows = append(rows, row)
		}
	}

	b.table.SetRows(rows)
	b.table.GotoTop()
}

// Init implements tea.Model.
func (b *Browser[T]) Init() tea.Cmd {
	b.request()

	return b.waitForState
}

// Update implements tea.Model.
func (b *Browser[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg[T]:
		b.setState(msg.state)

		return b, b.waitForState

	case tea.WindowSizeMsg:
		b.table.SetHeight(max(msg.Height-6, 1))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keyMap.Quit):
			return b, tea.Quit

		case key.Matches(msg, b.keyMap.Next):
			if b.hasNext() {
				b.page++
				b.request()
			}

			return b, nil

		case key.Matches(msg, b.keyMap.Prev):
			if b.page > 1 {
				b.page--
				b.request()
			}

			return b, nil

		case key.Matches(msg, b.keyMap.Reload):
			b.api.Reload()

			return b, nil
		}
	}

	var cmd tea.Cmd

	b.table, cmd = b.table.Update(msg)

	return b, cmd
}

// View implements tea.Model.
func (b *Browser[T]) View() string {
	var sb strings.Builder

	sb.WriteString(styleHeader.Render(b.title))
	sb.WriteString("\n\n")

	pages := "?"
	if total := b.totalPages(); total > 0 {
		pages = fmt.Sprint(total)
	}

	count := 0
	if b.state.Data != nil {
		count = b.state.Data.Count
	}

	sb.WriteString(styleStats.Render(fmt.Sprintf("Page %d of %s  │  %d items", b.page, pages, count)))
	sb.WriteString("\n")
	sb.WriteString(styleTable.Render(b.table.View()))
	sb.WriteString("\n")

	switch {
	case b.state.Loading:
		sb.WriteString(styleLoading.Render("Loading..."))
	case b.state.Err != nil:
		sb.WriteString(styleError.Render("Error: " + b.state.Err.Error()))
	case b.state.Data != nil && len(b.state.Data.Results) == 0:
		sb.WriteString(styleEmpty.Render("No results"))
	}

	sb.WriteString("\n")
	sb.WriteString(styleHelp.Render(b.helpLine()))

	return sb.String()
}

func (b *Browser[T]) helpLine() string {
	bindings := []key.Binding{b.keyMap.Next, b.keyMap.Prev, b.keyMap.Reload, b.keyMap.Quit}
	parts := make([]string, 0, len(bindings))

	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}

	return strings.Join(parts, " • ")
}

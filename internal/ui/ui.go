package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/playback"
	"github.com/desertthunder/clmusic/internal/shared"
	"github.com/desertthunder/clmusic/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ResultsView
	LyricsView
)

// Searcher runs catalog searches.
type Searcher interface {
	Search(ctx context.Context, q tasks.Query, progress chan<- tasks.ProgressUpdate) ([]models.Track, error)
	Results() []models.Track
}

// Resolver owns the playback session.
type Resolver interface {
	PlayOrToggle(ctx context.Context, track models.Track, quality models.Quality) error
	Session() models.Session
	SetObserver(fn playback.SessionObserver)
	Sync() *playback.Sync
}

// Downloader resolves and saves tracks.
type Downloader interface {
	Download(ctx context.Context, track models.Track, quality models.Quality, progress chan<- tasks.ProgressUpdate) (*tasks.SaveAction, error)
	Save(ctx context.Context, action tasks.SaveAction, dir string, progress chan<- tasks.ProgressUpdate) (string, error)
}

// Deps holds the services the TUI drives.
type Deps struct {
	Search      Searcher
	Resolver    Resolver
	Downloader  Downloader // nil disables downloads
	DownloadDir string
	Source      models.Source
	Quality     models.Quality
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	deps     Deps
	source   models.Source
	quality  models.Quality
	width    int
	height   int
	input    textinput.Model
	results  list.Model
	session  models.Session
	index    int
	status   string
	err      error
	events   chan tea.Msg
	progress chan tasks.ProgressUpdate
	help     help.Model
	keys     keyMap
}

// NewModel creates a TUI model and subscribes it to session and lyric index changes.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Source == "" {
		deps.Source = models.SourceNetease
	}
	if deps.Quality == 0 {
		deps.Quality = models.DefaultQuality
	}

	input := textinput.New()
	input.Placeholder = "song, artist or album"
	input.Prompt = "search> "
	input.Focus()

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Results"
	results.SetFilteringEnabled(false)
	results.SetShowHelp(false)

	m := &Model{
		ctx:      ctx,
		view:     SearchView,
		deps:     deps,
		source:   deps.Source,
		quality:  deps.Quality,
		input:    input,
		results:  results,
		index:    -1,
		events:   make(chan tea.Msg, 64),
		progress: make(chan tasks.ProgressUpdate, 64),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	if deps.Resolver != nil {
		m.session = deps.Resolver.Session()
		deps.Resolver.SetObserver(func(s models.Session) { m.notify(sessionChangedMsg(s)) })
		deps.Resolver.Sync().SetObserver(func(i int) { m.notify(lyricIndexMsg(i)) })
	}
	return m
}

// notify queues an event from a non-UI goroutine; a full queue drops it.
func (m *Model) notify(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// Init starts the cursor blink and the event pump.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case LyricsView:
			return m.handleLyricsKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchDone:
		res := msg.data.(searchResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("%d results from %s", len(res.tracks), m.source)
		m.results.SetItems(trackItems(res.tracks, m.currentID()))
		m.results.ResetSelected()
		m.view = ResultsView
		m.input.Blur()
		return m, nil

	case MsgSessionChanged:
		m.session = msg.data.(models.Session)
		m.refreshItems()
		return m, m.waitForEvent()

	case MsgLyricIndex:
		m.index = msg.data.(int)
		return m, m.waitForEvent()

	case MsgProgressUpdate:
		m.status = msg.data.(tasks.ProgressUpdate).Message
		return m, m.waitForEvent()

	case MsgPlayDone:
		err, _ := msg.data.(error)
		switch {
		case err == nil:
			m.err = nil
		case errors.Is(err, shared.ErrSuperseded):
		default:
			m.err = err
		}
		return m, nil

	case MsgDownloadDone:
		res := msg.data.(downloadResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.status = "saved " + res.path
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.source):
		m.cycleSource()
		return m, nil
	case key.Matches(msg, m.keys.back):
		if len(m.results.Items()) > 0 {
			m.view = ResultsView
			m.input.Blur()
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.status = fmt.Sprintf("searching %s...", m.source)
		return m, m.runSearch(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.source):
		m.cycleSource()
		return m, nil
	case key.Matches(msg, m.keys.quality):
		m.cycleQuality()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if tr, ok := m.selected(); ok {
			return m, m.play(tr)
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		return m, m.toggle()
	case key.Matches(msg, m.keys.lyrics):
		m.view = LyricsView
		return m, nil
	case key.Matches(msg, m.keys.download):
		if tr, ok := m.selected(); ok {
			return m, m.download(tr)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleLyricsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.lyrics):
		m.view = ResultsView
		return m, nil
	case key.Matches(msg, m.keys.toggle), key.Matches(msg, m.keys.enter):
		return m, m.toggle()
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case ResultsView:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m *Model) selected() (models.Track, bool) {
	item, ok := m.results.SelectedItem().(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}

func (m *Model) currentID() string {
	if m.session.Track == nil {
		return ""
	}
	return m.session.Track.ID
}

func (m *Model) refreshItems() {
	items := m.results.Items()
	tracks := make([]models.Track, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(trackItem); ok {
			tracks = append(tracks, ti.track)
		}
	}
	m.results.SetItems(trackItems(tracks, m.currentID()))
}

func (m *Model) cycleSource() {
	for i, src := range models.Sources {
		if src == m.source {
			m.source = models.Sources[(i+1)%len(models.Sources)]
			break
		}
	}
	m.status = "source: " + m.source.String()
}

func (m *Model) cycleQuality() {
	for i, q := range models.Qualities {
		if q == m.quality {
			m.quality = models.Qualities[(i+1)%len(models.Qualities)]
			break
		}
	}
	m.status = "quality: " + m.quality.String()
}

func (m *Model) runSearch(query string) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		tracks, err := m.deps.Search.Search(m.ctx, tasks.Query{Text: query, Source: source.String()}, m.progress)
		return searchDoneMsg(tracks, err)
	}
}

func (m *Model) play(tr models.Track) tea.Cmd {
	if m.deps.Resolver == nil {
		return nil
	}
	quality := m.quality
	m.status = "loading " + tr.Display()
	return func() tea.Msg {
		return playDoneMsg(m.deps.Resolver.PlayOrToggle(m.ctx, tr, quality))
	}
}

// toggle pauses or resumes the current session's track.
func (m *Model) toggle() tea.Cmd {
	if m.session.Track == nil {
		return nil
	}
	return m.play(*m.session.Track)
}

func (m *Model) download(tr models.Track) tea.Cmd {
	if m.deps.Downloader == nil {
		m.status = "downloads disabled"
		return nil
	}
	quality := m.quality
	return func() tea.Msg {
		action, err := m.deps.Downloader.Download(m.ctx, tr, quality, m.progress)
		if err != nil {
			return downloadDoneMsg("", err)
		}
		path, err := m.deps.Downloader.Save(m.ctx, *action, m.deps.DownloadDir, m.progress)
		return downloadDoneMsg(path, err)
	}
}

// waitForEvent blocks until an observer or progress event arrives.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case update := <-m.progress:
			return progressUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case ResultsView:
		body = m.renderResults()
	case LyricsView:
		body = m.renderLyrics()
	}
	return fmt.Sprintf("%s\n%s", body, m.renderStatus())
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("clmusic")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.source, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, styles.help.Render("source: "+m.source.String()), m.input.View(), helpView)
}

func (m *Model) renderResults() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.toggle, m.keys.lyrics, m.keys.download, m.keys.search, m.keys.quality, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.renderNowPlaying(), m.results.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderNowPlaying() string {
	s := m.session
	if s.Track == nil {
		return styles.help.Render("nothing playing")
	}
	switch {
	case s.StreamURL == "":
		return styles.warn.Render("… " + s.Track.Display())
	case s.Playing:
		return styles.ok.Render("▶ " + s.Track.Display())
	default:
		return styles.help.Render("⏸ " + s.Track.Display())
	}
}

// lyricWindow is the number of lines shown above and below the active line.
const lyricWindow = 5

func (m *Model) renderLyrics() string {
	doc := m.session.Lyrics
	header := m.renderNowPlaying()
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.toggle, m.keys.back, m.keys.quit})

	if doc.Empty() {
		return fmt.Sprintf("%s\n\n%s\n\n%s", header, styles.help.Render("no lyrics"), helpView)
	}

	center := max(m.index, 0)
	start := max(center-lyricWindow, 0)
	end := min(center+lyricWindow+1, doc.Len())

	var b strings.Builder
	for i := start; i < end; i++ {
		line, _ := doc.Line(i)
		text := line.Text
		if tr := doc.TranslationAt(i); tr != "" {
			text += "\n" + tr
		}
		if i == m.index {
			b.WriteString(styles.active.Render(text))
		} else {
			b.WriteString(styles.dim.Render(text))
		}
		b.WriteString("\n")
	}

	return fmt.Sprintf("%s\n\n%s\n%s", header, b.String(), helpView)
}

func (m *Model) renderStatus() string {
	line := fmt.Sprintf("%s • %sk", m.source, m.quality)
	if m.status != "" {
		line += " • " + m.status
	}
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n" + styles.help.Render(line)
	}
	return styles.help.Render(line)
}

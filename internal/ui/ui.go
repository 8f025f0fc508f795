package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yt2mp3/internal/shared"
	"github.com/desertthunder/yt2mp3/internal/tasks"
)

var (
	_ tasks.Selector = (*Selector)(nil)
	_ tasks.Prompter = (*Prompter)(nil)
)

const (
	defaultWidth  = 80
	defaultHeight = 20
)

// selectModel is a single-choice list. choice stays -1 unless enter picks an item.
type selectModel struct {
	list   list.Model
	keys   keyMap
	help   help.Model
	choice int
}

func newSelectModel(title string, options []string) selectModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(optionItems(options), delegate, defaultWidth, defaultHeight)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(len(options) > 1)

	return selectModel{list: l, keys: newKeyMap(), help: help.New(), choice: -1}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.list.SelectedItem().(optionItem); ok {
				m.choice = item.index
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
			m.choice = -1
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectModel) View() string {
	return fmt.Sprintf("%s\n%s", m.list.View(), m.help.ShortHelpView(m.keys.ShortHelp()))
}

// Selector presents options in a filterable list. It satisfies [tasks.Selector].
type Selector struct {
	in  io.Reader
	out io.Writer
}

// NewSelector creates a Selector reading keys from in and drawing to out.
func NewSelector(in io.Reader, out io.Writer) *Selector {
	return &Selector{in: in, out: out}
}

// Select returns the chosen index, or -1 when the user backs out with esc or q.
func (s *Selector) Select(title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, nil
	}

	final, err := tea.NewProgram(newSelectModel(title, options), tea.WithInput(s.in), tea.WithOutput(s.out)).Run()
	if err != nil {
		return -1, fmt.Errorf("selector: %w", err)
	}
	return final.(selectModel).choice, nil
}

// promptModel reads a single line.
type promptModel struct {
	label     string
	input     textinput.Model
	keys      keyMap
	done      bool
	cancelled bool
}

func newPromptModel(label, placeholder string) promptModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = styles.title.UnsetMarginBottom().Render(label+":") + " "
	ti.CharLimit = 200
	ti.Width = 50
	ti.Focus()
	return promptModel{label: label, input: ti, keys: newKeyMap()}
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return m.input.View() + "\n" + styles.help.Render("enter to confirm, empty to skip, esc to cancel") + "\n"
}

// Value is the trimmed answer.
func (m promptModel) Value() string {
	return strings.TrimSpace(m.input.Value())
}

// Prompter asks for single-line answers. It satisfies [tasks.Prompter].
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// NewPrompter creates a Prompter reading keys from in and drawing to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Prompt returns the typed answer. An empty answer is valid; esc is [shared.ErrCancelled].
func (p *Prompter) Prompt(label, placeholder string) (string, error) {
	final, err := tea.NewProgram(newPromptModel(label, placeholder), tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}

	m := final.(promptModel)
	if m.cancelled {
		return "", shared.ErrCancelled
	}
	return m.Value(), nil
}

// progressModel renders the latest [tasks.ProgressUpdate] from updates until the channel closes.
type progressModel struct {
	title       string
	spinner     spinner.Model
	bar         progress.Model
	updates     <-chan tasks.ProgressUpdate
	current     tasks.ProgressUpdate
	log         []string
	finished    bool
	interrupted bool
}

func newProgressModel(title string, updates <-chan tasks.ProgressUpdate) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.warn

	return progressModel{
		title:   title,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		updates: updates,
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			update := msg.data.(tasks.ProgressUpdate)
			switch update.Phase {
			case tasks.Done, tasks.Skip, tasks.Failed:
				m.log = append(m.log, update.Message)
			}
			m.current = update
			return m, m.waitForProgress()
		case MsgRunComplete:
			m.finished = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return runCompleteMsg()
		}
		return progressUpdateMsg(update)
	}
}

// fraction is how far through the current phase the run is, in [0, 1].
func (m progressModel) fraction() float64 {
	if m.current.Phase == tasks.Convert {
		if pct, ok := m.current.Data.(float64); ok {
			return pct / 100
		}
	}
	if m.current.Total <= 0 {
		return 0
	}
	return float64(m.current.Step) / float64(m.current.Total)
}

func (m progressModel) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")

	for _, line := range m.log {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.finished {
		return b.String()
	}

	fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), m.current.Message)
	b.WriteString(m.bar.ViewAs(m.fraction()))
	b.WriteString("\n")
	return b.String()
}

// RunProgress calls fn and renders the updates it sends until it returns.
//
// ctrl+c cancels the context passed to fn; RunProgress still waits for fn to return.
func RunProgress(ctx context.Context, out io.Writer, title string, fn func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan tasks.ProgressUpdate, 64)
	result := make(chan error, 1)
	go func() {
		defer close(updates)
		result <- fn(ctx, updates)
	}()

	final, err := tea.NewProgram(newProgressModel(title, updates), tea.WithOutput(out), tea.WithContext(ctx)).Run()
	if m, ok := final.(progressModel); ok && m.interrupted {
		cancel()
	}
	runErr := <-result

	if runErr != nil {
		return runErr
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("progress: %w", err)
	}
	return nil
}

package tui

import (
	"context"
	"io"

	"ethlookup/pkg/filter"
	"ethlookup/pkg/lookup"
	"ethlookup/pkg/snapshot"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Version is set by Start()
var Version = "dev"

// InvalidAddressText is the only thing shown for a malformed address.
const InvalidAddressText = "The provided hash is not a valid address."

// --- Messages ---

type clearStatusMsg struct{}

// --- Model ---

type model struct {
	service     *lookup.Service
	sub         lookup.Subscriber
	ctx         context.Context
	logger      *log.Logger
	explorerURL string

	address    string
	invalid    error
	generation uint64
	inputs     snapshot.Inputs

	controller *filter.Controller
	search     textinput.Model
	searching  bool

	spinner       spinner.Model
	viewport      viewport.Model
	width         int
	height        int
	statusMessage string
	showHelp      bool
	showChart     bool
}

func initialModel(ctx context.Context, svc *lookup.Service, address, explorerURL string, logger *log.Logger) model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Filter by hash, block, function, value..."
	ti.Prompt = "/ "
	ti.Width = 50

	m := model{
		service:     svc,
		ctx:         ctx,
		logger:      logger,
		explorerURL: explorerURL,
		controller:  filter.NewController(),
		search:      ti,
		spinner:     s,
		viewport:    viewport.New(0, 0),
	}

	clean, err := lookup.Validate(address)
	if err != nil {
		m.address = address
		m.invalid = err
		return m
	}
	m.address = clean
	m.inputs = snapshot.NewInputs(clean)
	m.sub = svc.Subscribe()
	return m
}

// startLookup launches a new lookup and forgets the results of the previous one.
func (m *model) startLookup() {
	if m.invalid != nil {
		return
	}
	gen, err := m.service.Start(m.ctx, m.address)
	if err != nil {
		m.invalid = err
		return
	}
	m.generation = gen
	m.inputs = snapshot.NewInputs(m.address)
	m.logger.Debug("lookup requested", "address", m.address, "generation", gen)
}

func (m model) loading() bool {
	return m.invalid == nil && m.inputs.Loading()
}

func (m model) Init() tea.Cmd {
	if m.invalid != nil {
		return nil
	}
	return tea.Batch(listenForEvents(m.sub), m.spinner.Tick)
}

package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/internal/market/core"
	marketservice "github.com/zappabad/papertrade/internal/market/service"
	"github.com/zappabad/papertrade/tui/panels"
	"github.com/zappabad/papertrade/tui/styles"
)

// Tab represents the visible screen.
type Tab int

const (
	TabMarket Tab = iota
	TabPortfolio
)

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusMarket PanelFocus = iota
	FocusOrderInput
	FocusFills
)

// intervalStep is how much +/- nudges the tick interval.
const intervalStep = 100 * time.Millisecond

// Model is the main TUI application model.
type Model struct {
	market *marketservice.Service

	marketPanel     *panels.MarketPanel
	portfolioPanel  *panels.PortfolioPanel
	fillsPanel      *panels.FillsPanel
	orderInputPanel *panels.OrderInputPanel

	tab          Tab
	focusedPanel PanelFocus

	// Desired tick interval, kept even while the scheduler is stopped.
	tickInterval time.Duration

	width  int
	height int

	statusMsg string
	ready     bool
}

// NewModel creates a new TUI model on top of the market service.
func NewModel(market *marketservice.Service) *Model {
	snap := market.Snapshot()

	interval := time.Duration(snap.Sim.TickMs) * time.Millisecond
	if interval < marketservice.MinTickInterval {
		interval = marketservice.DefaultTickInterval
	}

	m := &Model{
		market:          market,
		marketPanel:     panels.NewMarketPanel(),
		portfolioPanel:  panels.NewPortfolioPanel(),
		fillsPanel:      panels.NewFillsPanel(),
		orderInputPanel: panels.NewOrderInputPanel(),
		tab:             TabMarket,
		focusedPanel:    FocusOrderInput,
		tickInterval:    interval,
	}
	m.applySnapshot()
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.marketPanel.Init(),
		m.portfolioPanel.Init(),
		m.fillsPanel.Init(),
		m.orderInputPanel.Init(),
		m.listenMarketEvents(),
		m.tickRefresh(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case panels.OrderSubmitMsg:
		cmds = append(cmds, m.submitOrder(msg))

	case orderResultMsg:
		m.statusMsg = msg.message

	case marketEventMsg:
		m.handleMarketEvent(msg.event)
		cmds = append(cmds, m.listenMarketEvents())

	case tickMsg:
		m.applySnapshot()
		cmds = append(cmds, m.tickRefresh())
	}

	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

// handleKey processes global key bindings. handled reports whether the key
// was consumed and must not reach the focused panel.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	editing := m.orderInputPanel.Editing()

	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true

	case "q":
		if editing {
			return nil, false
		}
		return tea.Quit, true

	case "tab":
		m.cycleFocus(1)
		return nil, true

	case "shift+tab":
		m.cycleFocus(-1)
		return nil, true

	case "f1":
		m.tab = TabMarket
		return nil, true

	case "f2":
		m.tab = TabPortfolio
		return nil, true

	case " ":
		if editing {
			return nil, false
		}
		return m.toggleSim(), true

	case "+", "=":
		if editing {
			return nil, false
		}
		return m.adjustInterval(intervalStep), true

	case "-":
		if editing {
			return nil, false
		}
		return m.adjustInterval(-intervalStep), true
	}
	return nil, false
}

func (m *Model) cycleFocus(dir int) {
	order := []PanelFocus{FocusMarket, FocusOrderInput, FocusFills}
	if m.tab == TabPortfolio {
		order = []PanelFocus{FocusMarket, FocusFills}
	}

	idx := 0
	for i, f := range order {
		if f == m.focusedPanel {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(order)) % len(order)
	m.focusedPanel = order[idx]
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd

	switch m.focusedPanel {
	case FocusMarket:
		m.marketPanel, cmd = m.marketPanel.Update(msg)
		m.orderInputPanel.Prefill(m.marketPanel.SelectedCode())
	case FocusOrderInput:
		m.orderInputPanel, cmd = m.orderInputPanel.Update(msg)
	case FocusFills:
		m.fillsPanel, cmd = m.fillsPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	snap := m.market.Snapshot()

	m.marketPanel.SetFocus(m.tab == TabMarket && m.focusedPanel == FocusMarket)
	m.portfolioPanel.SetFocus(m.tab == TabPortfolio && m.focusedPanel == FocusMarket)
	m.orderInputPanel.SetFocus(m.tab == TabMarket && m.focusedPanel == FocusOrderInput)
	m.fillsPanel.SetFocus(m.focusedPanel == FocusFills)

	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar(snap.Sim, snap.Circuit)

	bodyHeight := m.height - 2
	topHeight := bodyHeight * 2 / 3
	bottomHeight := bodyHeight - topHeight

	var topRow string
	switch m.tab {
	case TabMarket:
		leftWidth := m.width * 2 / 3
		m.marketPanel.SetSize(leftWidth, topHeight)
		m.orderInputPanel.SetSize(m.width-leftWidth, topHeight)
		topRow = lipgloss.JoinHorizontal(lipgloss.Top,
			m.marketPanel.View(), m.orderInputPanel.View())
	case TabPortfolio:
		m.portfolioPanel.SetSize(m.width, topHeight)
		topRow = m.portfolioPanel.View()
	}

	m.fillsPanel.SetSize(m.width, bottomHeight)

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, topRow, m.fillsPanel.View(), statusBar)
}

func (m *Model) renderTabBar() string {
	marketTab := styles.TabStyle.Render("F1 Market")
	portfolioTab := styles.TabStyle.Render("F2 Portfolio")
	if m.tab == TabMarket {
		marketTab = styles.ActiveTabStyle.Render("F1 Market")
	} else {
		portfolioTab = styles.ActiveTabStyle.Render("F2 Portfolio")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, marketTab, portfolioTab)
}

func (m *Model) renderStatusBar(sim market.SimState, circuit market.CircuitState) string {
	simStatus := styles.StatusBarDescStyle.Render(fmt.Sprintf("⏸ stopped (%dms)", m.tickInterval/time.Millisecond))
	if sim.Running {
		simStatus = styles.StatusBarKeyStyle.Render(fmt.Sprintf("▶ running (%dms)", sim.TickMs))
	}

	halt := ""
	if circuit.Active {
		halt = " │ " + styles.HaltStyle.Render("MARKET HALTED")
	}

	help := styles.StatusBarKeyStyle.Render("Space") + styles.StatusBarDescStyle.Render(" sim") +
		" │ " + styles.StatusBarKeyStyle.Render("+/-") + styles.StatusBarDescStyle.Render(" speed") +
		" │ " + styles.StatusBarKeyStyle.Render("Tab") + styles.StatusBarDescStyle.Render(" focus") +
		" │ " + styles.StatusBarKeyStyle.Render("q") + styles.StatusBarDescStyle.Render(" quit")

	status := ""
	if m.statusMsg != "" {
		status = " │ " + m.statusMsg
	}

	return styles.StatusBarStyle.Width(m.width).Render(simStatus + halt + " │ " + help + status)
}

// applySnapshot refreshes every panel from the latest published snapshot.
func (m *Model) applySnapshot() {
	snap := m.market.Snapshot()
	m.marketPanel.SetSnapshot(snap)
	m.portfolioPanel.SetSnapshot(snap)
	m.fillsPanel.SetFills(snap.Fills)

	codes := make([]market.Code, len(snap.Stocks))
	for i, s := range snap.Stocks {
		codes[i] = s.Code
	}
	m.orderInputPanel.SetCodes(codes)
}

func (m *Model) handleMarketEvent(ev core.Event) {
	if halt, ok := ev.(core.MarketHaltedEvent); ok {
		m.statusMsg = styles.HaltStyle.Render(
			fmt.Sprintf("⛔ circuit breaker: %s hit ±%s%% band, market halted", halt.Code, halt.TriggerPct))
	}
}

func (m *Model) submitOrder(order panels.OrderSubmitMsg) tea.Cmd {
	return func() tea.Msg {
		fill, err := m.market.Submit(context.Background(), order.Side, order.Code, order.Qty)
		if err != nil {
			return orderResultMsg{message: styles.SellStyle.Render("✗ order rejected: " + err.Error())}
		}
		return orderResultMsg{message: styles.BuyStyle.Render(fmt.Sprintf("✓ %s %d %s @ %s",
			fill.Side, fill.Qty, fill.Code, fill.Price.StringFixed(2)))}
	}
}

// toggleSim starts or stops the tick scheduler.
func (m *Model) toggleSim() tea.Cmd {
	running := m.market.Snapshot().Sim.Running
	interval := m.tickInterval
	return func() tea.Msg {
		ctx := context.Background()
		if running {
			if _, err := m.market.Stop(ctx); err != nil {
				return orderResultMsg{message: "✗ " + err.Error()}
			}
			return orderResultMsg{message: "simulation stopped"}
		}
		sim, err := m.market.Start(ctx, interval)
		if err != nil {
			return orderResultMsg{message: "✗ " + err.Error()}
		}
		return orderResultMsg{message: fmt.Sprintf("simulation running at %dms", sim.TickMs)}
	}
}

// adjustInterval nudges the tick interval, restarting the scheduler when it
// is already running.
func (m *Model) adjustInterval(delta time.Duration) tea.Cmd {
	m.tickInterval += delta
	if m.tickInterval < marketservice.MinTickInterval {
		m.tickInterval = marketservice.MinTickInterval
	}

	if !m.market.Snapshot().Sim.Running {
		m.statusMsg = fmt.Sprintf("tick interval %dms", m.tickInterval/time.Millisecond)
		return nil
	}

	interval := m.tickInterval
	return func() tea.Msg {
		sim, err := m.market.Start(context.Background(), interval)
		if err != nil {
			return orderResultMsg{message: "✗ " + err.Error()}
		}
		return orderResultMsg{message: fmt.Sprintf("tick interval %dms", sim.TickMs)}
	}
}

func (m *Model) listenMarketEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.market.Events()
		if !ok {
			return nil
		}
		return marketEventMsg{event: ev}
	}
}

// tickMsg is sent periodically to refresh data.
type tickMsg struct{}

func (m *Model) tickRefresh() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}

// orderResultMsg is sent after an order is processed.
type orderResultMsg struct {
	message string
}

// marketEventMsg wraps an engine event for the update loop.
type marketEventMsg struct {
	event core.Event
}

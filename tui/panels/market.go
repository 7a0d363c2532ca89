package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/papertrade/internal/market"
	marketview "github.com/zappabad/papertrade/internal/market/view"
	"github.com/zappabad/papertrade/tui/styles"
)

// MarketPanel displays the price board for every instrument.
type MarketPanel struct {
	rows          []marketview.StockRow
	halted        bool
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewMarketPanel creates a new market panel.
func NewMarketPanel() *MarketPanel {
	return &MarketPanel{}
}

// Init initializes the panel.
func (p *MarketPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketPanel) Update(msg tea.Msg) (*MarketPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.rows)-1 {
				p.selectedIndex++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *MarketPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-6s %-20s %12s %10s %9s",
		"Code", "Name", "Price", "Change", "Change%")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	for i, row := range p.rows {
		change := styles.SignedStyle(row.Change)
		line := fmt.Sprintf("%-6s %-20s %12s %10s %8s%%",
			row.Code, row.Name,
			styles.FormatMoney(row.Price),
			change.Render(styles.FormatSigned(row.Change)),
			change.Render(styles.FormatSigned(row.ChangePct)),
		)

		style := styles.RowStyle
		if i == p.selectedIndex && p.focused {
			style = styles.SelectedRowStyle
		}
		content.WriteString(style.Render(line))
		if i < len(p.rows)-1 {
			content.WriteString("\n")
		}
	}

	title := "Market"
	if p.halted {
		title = "Market " + styles.HaltStyle.Render("⛔ HALTED")
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	panel := lipgloss.JoinVertical(lipgloss.Left,
		styles.RenderTitle(title, p.focused), content.String())
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *MarketPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MarketPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetSnapshot replaces the displayed rows.
func (p *MarketPanel) SetSnapshot(snap marketview.Snapshot) {
	p.rows = snap.Stocks
	p.halted = snap.Circuit.Active
	if p.selectedIndex >= len(p.rows) {
		p.selectedIndex = 0
	}
}

// SelectedCode returns the code of the highlighted row.
func (p *MarketPanel) SelectedCode() market.Code {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.rows) {
		return p.rows[p.selectedIndex].Code
	}
	return ""
}

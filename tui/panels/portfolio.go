package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	marketview "github.com/zappabad/papertrade/internal/market/view"
	"github.com/zappabad/papertrade/tui/styles"
)

// PortfolioPanel displays open positions and the account summary.
type PortfolioPanel struct {
	snap    marketview.Snapshot
	focused bool
	width   int
	height  int
}

// NewPortfolioPanel creates a new portfolio panel.
func NewPortfolioPanel() *PortfolioPanel {
	return &PortfolioPanel{}
}

// Init initializes the panel.
func (p *PortfolioPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *PortfolioPanel) Update(msg tea.Msg) (*PortfolioPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *PortfolioPanel) View() string {
	var content strings.Builder

	summary := fmt.Sprintf("Cash %s   Equity %s   Total %s   P&L %s",
		styles.FormatMoney(p.snap.Cash),
		styles.FormatMoney(p.snap.Equity),
		styles.FormatMoney(p.snap.Total),
		styles.SignedStyle(p.snap.TotalPnL).Render(styles.FormatSigned(p.snap.TotalPnL)),
	)
	content.WriteString(styles.RowStyle.Render(summary))
	content.WriteString("\n\n")

	header := fmt.Sprintf("%-6s %8s %12s %12s %14s %12s",
		"Code", "Qty", "Avg", "Price", "Value", "P&L")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	if len(p.snap.Holdings) == 0 {
		content.WriteString(styles.TimeStyle.Render("no open positions"))
	}
	for i, h := range p.snap.Holdings {
		line := fmt.Sprintf("%-6s %8d %12s %12s %14s %12s",
			h.Code, h.Qty,
			styles.FormatMoney(h.Avg),
			styles.FormatMoney(h.Price),
			styles.FormatMoney(h.MarketValue),
			styles.SignedStyle(h.UnrealizedPnL).Render(styles.FormatSigned(h.UnrealizedPnL)),
		)
		content.WriteString(styles.RowStyle.Render(line))
		if i < len(p.snap.Holdings)-1 {
			content.WriteString("\n")
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	panel := lipgloss.JoinVertical(lipgloss.Left,
		styles.RenderTitle("Portfolio", p.focused), content.String())
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *PortfolioPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *PortfolioPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetSnapshot replaces the displayed data.
func (p *PortfolioPanel) SetSnapshot(snap marketview.Snapshot) {
	p.snap = snap
}

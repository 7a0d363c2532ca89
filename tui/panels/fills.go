package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/tui/styles"
)

// maxVisibleFills caps how much of the tape the panel renders.
const maxVisibleFills = 50

// FillsPanel displays the recent fill tape, newest first.
type FillsPanel struct {
	fills   []market.Fill
	focused bool
	width   int
	height  int
}

// NewFillsPanel creates a new fills panel.
func NewFillsPanel() *FillsPanel {
	return &FillsPanel{}
}

// Init initializes the panel.
func (p *FillsPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *FillsPanel) Update(msg tea.Msg) (*FillsPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *FillsPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-9s %-5s %-6s %8s %12s", "Time", "Side", "Code", "Qty", "Price")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	visible := p.fills
	if len(visible) > maxVisibleFills {
		visible = visible[:maxVisibleFills]
	}
	if rows := p.height - 5; rows > 0 && len(visible) > rows {
		visible = visible[:rows]
	}

	if len(visible) == 0 {
		content.WriteString(styles.TimeStyle.Render("no fills yet"))
	}
	for i, f := range visible {
		sideStyle := styles.BuyStyle
		if f.Side == market.SideSell {
			sideStyle = styles.SellStyle
		}
		line := fmt.Sprintf("%s %s %-6s %8d %12s",
			styles.TimeStyle.Render(f.Time.Format("15:04:05")),
			sideStyle.Render(fmt.Sprintf("%-5s", f.Side)),
			f.Code, f.Qty,
			styles.FormatMoney(f.Price),
		)
		content.WriteString(styles.RowStyle.Render(line))
		if i < len(visible)-1 {
			content.WriteString("\n")
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	panel := lipgloss.JoinVertical(lipgloss.Left,
		styles.RenderTitle("Fills", p.focused), content.String())
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *FillsPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *FillsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetFills replaces the displayed tape.
func (p *FillsPanel) SetFills(fills []market.Fill) {
	p.fills = fills
}

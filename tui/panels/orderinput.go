package panels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/tui/styles"
)

// OrderInputField represents the currently focused input field.
type OrderInputField int

const (
	FieldCode OrderInputField = iota
	FieldSide
	FieldQuantity
	FieldSubmit
)

// OrderSubmitMsg is sent when the user submits the order form.
type OrderSubmitMsg struct {
	Side market.Side
	Code market.Code
	Qty  int64
}

// OrderInputPanel handles market-order entry.
type OrderInputPanel struct {
	codes         []market.Code
	codeInput     textinput.Model
	quantityInput textinput.Model

	sideOptions []string
	sideIndex   int

	currentField OrderInputField
	errMsg       string

	focused bool
	width   int
	height  int
}

// NewOrderInputPanel creates a new order input panel.
func NewOrderInputPanel() *OrderInputPanel {
	codeInput := textinput.New()
	codeInput.Placeholder = "Code"
	codeInput.Width = 8
	codeInput.CharLimit = 8

	quantityInput := textinput.New()
	quantityInput.Placeholder = "Quantity"
	quantityInput.Width = 10
	quantityInput.CharLimit = 12

	return &OrderInputPanel{
		codeInput:     codeInput,
		quantityInput: quantityInput,
		sideOptions:   []string{"BUY", "SELL"},
		currentField:  FieldCode,
	}
}

// Init initializes the panel.
func (p *OrderInputPanel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the panel.
func (p *OrderInputPanel) Update(msg tea.Msg) (*OrderInputPanel, tea.Cmd) {
	if !p.focused {
		return p, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("down"))):
			p.nextField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("up"))):
			p.prevField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if p.currentField == FieldSubmit {
				return p, p.submitOrder()
			}
			p.nextField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("left", "right"))):
			if p.currentField == FieldSide {
				p.sideIndex = 1 - p.sideIndex
				return p, nil
			}
		}
	}

	switch p.currentField {
	case FieldCode:
		p.codeInput, cmd = p.codeInput.Update(msg)
	case FieldQuantity:
		p.quantityInput, cmd = p.quantityInput.Update(msg)
	}
	return p, cmd
}

func (p *OrderInputPanel) nextField() {
	p.currentField = (p.currentField + 1) % 4
	p.syncInputFocus()
}

func (p *OrderInputPanel) prevField() {
	p.currentField--
	if p.currentField < 0 {
		p.currentField = FieldSubmit
	}
	p.syncInputFocus()
}

func (p *OrderInputPanel) syncInputFocus() {
	p.codeInput.Blur()
	p.quantityInput.Blur()
	switch p.currentField {
	case FieldCode:
		p.codeInput.Focus()
	case FieldQuantity:
		p.quantityInput.Focus()
	}
}

// submitOrder validates the form and emits an OrderSubmitMsg.
func (p *OrderInputPanel) submitOrder() tea.Cmd {
	code := market.Code(strings.ToUpper(strings.TrimSpace(p.codeInput.Value())))
	if code == "" {
		p.errMsg = "enter an instrument code"
		return nil
	}

	qty, err := strconv.ParseInt(strings.TrimSpace(p.quantityInput.Value()), 10, 64)
	if err != nil || qty <= 0 {
		p.errMsg = "quantity must be a positive whole number"
		return nil
	}

	side := market.SideBuy
	if p.sideIndex == 1 {
		side = market.SideSell
	}

	p.errMsg = ""
	return func() tea.Msg {
		return OrderSubmitMsg{Side: side, Code: code, Qty: qty}
	}
}

// View renders the panel.
func (p *OrderInputPanel) View() string {
	var content strings.Builder

	renderField := func(field OrderInputField, label, value string) string {
		inputStyle := styles.InputStyle
		if p.focused && p.currentField == field {
			inputStyle = styles.FocusedInputStyle
		}
		return lipgloss.JoinHorizontal(lipgloss.Center,
			styles.LabelStyle.Render(fmt.Sprintf("%-6s", label)),
			inputStyle.Render(value),
		)
	}

	sideStyle := styles.BuyStyle
	if p.sideIndex == 1 {
		sideStyle = styles.SellStyle
	}

	content.WriteString(renderField(FieldCode, "Code", p.codeInput.View()))
	content.WriteString("\n")
	content.WriteString(renderField(FieldSide, "Side", sideStyle.Render(p.sideOptions[p.sideIndex])+" ◂▸"))
	content.WriteString("\n")
	content.WriteString(renderField(FieldQuantity, "Qty", p.quantityInput.View()))
	content.WriteString("\n")

	submit := "[ Place Order ]"
	if p.focused && p.currentField == FieldSubmit {
		content.WriteString(styles.SelectedRowStyle.Render(submit))
	} else {
		content.WriteString(styles.RowStyle.Render(submit))
	}

	if p.errMsg != "" {
		content.WriteString("\n")
		content.WriteString(styles.SellStyle.Render(p.errMsg))
	}
	if len(p.codes) > 0 {
		content.WriteString("\n")
		list := make([]string, len(p.codes))
		for i, c := range p.codes {
			list[i] = string(c)
		}
		content.WriteString(styles.TimeStyle.Render("codes: " + strings.Join(list, " ")))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	panel := lipgloss.JoinVertical(lipgloss.Left,
		styles.RenderTitle("Order", p.focused), content.String())
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *OrderInputPanel) SetFocus(focused bool) {
	p.focused = focused
	if focused {
		p.syncInputFocus()
	} else {
		p.codeInput.Blur()
		p.quantityInput.Blur()
	}
}

// SetSize sets the panel dimensions.
func (p *OrderInputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetCodes updates the tradable instrument list shown as a hint.
func (p *OrderInputPanel) SetCodes(codes []market.Code) {
	p.codes = codes
}

// Prefill sets the code field, typically from the market panel selection.
func (p *OrderInputPanel) Prefill(code market.Code) {
	if code != "" {
		p.codeInput.SetValue(string(code))
	}
}

// Editing reports whether a text field is currently capturing keystrokes.
func (p *OrderInputPanel) Editing() bool {
	return p.focused && (p.currentField == FieldCode || p.currentField == FieldQuantity)
}

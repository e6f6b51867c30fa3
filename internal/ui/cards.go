package ui

import (
	"fmt"
	"strings"

	"jomkira/internal/styles"
	"jomkira/internal/tools"

	"github.com/charmbracelet/lipgloss"
)

// RenderDecision draws one dispatcher decision. active marks the card the
// approve/decline/edit keys currently act on.
func RenderDecision(d tools.Decision, money *Money, spinnerView string, active bool) string {
	switch d.Kind {
	case tools.KindLoading:
		return styles.LoadingStyle.Render(fmt.Sprintf("%s %s", spinnerView, d.Text))
	case tools.KindCompletion:
		title := styles.CompletionTitleStyle.Render("✓ " + d.Title)
		return styles.CompletionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, d.Text))
	case tools.KindPaymentCard:
		if d.Card == nil {
			return ""
		}
		return renderPaymentCard(d.Card, money, active)
	default:
		return ""
	}
}

func renderPaymentCard(c *tools.PaymentCard, money *Money, active bool) string {
	var header string
	var rows [][2]string

	switch c.Mode {
	case tools.ModeBill:
		header = fmt.Sprintf("%s  BILL PAYMENT", c.Category.Icon())
		rows = append(rows,
			[2]string{"Biller", c.BillerName},
			[2]string{"Account", c.BillerAccountNumber},
		)
		if c.DueDate != "" {
			rows = append(rows, [2]string{"Due", c.DueDate})
		}
	default:
		header = "↗  TRANSFER"
		rows = append(rows,
			[2]string{"To", c.RecipientName},
			[2]string{"Bank", c.BankName},
			[2]string{"Account", c.AccountNumber},
		)
	}
	if c.Reference != "" {
		rows = append(rows, [2]string{"Reference", c.Reference})
	}

	lines := []string{
		styles.CardHeaderStyle.Render(header),
		styles.CardAmountStyle.Render(money.Format(c.Amount)),
		"",
	}
	for _, r := range rows {
		lines = append(lines, styles.CardLabelStyle.Render(r[0])+styles.CardValueStyle.Render(r[1]))
	}

	if active {
		buttons := []string{
			styles.ApproveKeyStyle.Render("^Y Approve"),
			styles.DeclineKeyStyle.Render("^X Decline"),
		}
		if c.Mode == tools.ModeTransfer {
			buttons = append(buttons, styles.EditKeyStyle.Render("^E Edit"))
		}
		lines = append(lines, "", strings.Join(buttons, " "))
	}

	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

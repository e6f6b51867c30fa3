package tools

import (
	"maps"
	"math"

	"jomkira/internal/actions"
	"jomkira/internal/models"

	"github.com/spf13/cast"
)

type Kind int

const (
	KindLoading Kind = iota + 1
	KindPaymentCard
	KindCompletion
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindPaymentCard:
		return "payment_card"
	case KindCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

type Mode string

const (
	ModeTransfer Mode = "transfer"
	ModeBill     Mode = "bill"
)

// Binding is an action to dispatch with the args of the originating call.
type Binding struct {
	Action actions.Action
	Args   map[string]any
}

type PaymentCard struct {
	Mode      Mode
	Amount    float64
	Reference string

	RecipientName string
	BankName      string
	AccountNumber string

	BillerName          string
	BillerAccountNumber string
	DueDate             string
	Category            BillerCategory

	Approve Binding
	Decline Binding
	Edit    Binding
}

// Decision is what the UI should draw for one tool call.
type Decision struct {
	Kind     Kind
	ToolName string
	// Title is set for completions.
	Title string
	// Text is the loading line or the completion body.
	Text string
	Card *PaymentCard
}

// Call is a decoded tool call.
type Call interface {
	Render(state *models.BankingState) (Decision, bool)
}

type PrepareTransfer struct {
	Amount        float64
	Reference     string
	RecipientName string
	BankName      string
	AccountNumber string
	Args          map[string]any
}

func decodePrepareTransfer(args map[string]any) Call {
	return PrepareTransfer{
		Amount:        amountArg(args),
		Reference:     stringArg(args, "reference"),
		RecipientName: stringArg(args, "recipient_name"),
		BankName:      stringArg(args, "bank_name"),
		AccountNumber: stringArg(args, "account_number"),
		Args:          args,
	}
}

func (c PrepareTransfer) Render(*models.BankingState) (Decision, bool) {
	return Decision{
		Kind: KindPaymentCard,
		Card: &PaymentCard{
			Mode:          ModeTransfer,
			Amount:        c.Amount,
			Reference:     c.Reference,
			RecipientName: c.RecipientName,
			BankName:      c.BankName,
			AccountNumber: c.AccountNumber,
			Approve:       bind(actions.ApproveTransfer, c.Args),
			Decline:       bind(actions.DeclineTransfer, c.Args),
			Edit:          bind(actions.EditTransfer, c.Args),
		},
	}, true
}

type ConfirmTransfer struct{}

func (ConfirmTransfer) Render(state *models.BankingState) (Decision, bool) {
	return completion("Transfer Completed", "Your transfer was successful.", state), true
}

type PrepareBill struct {
	Amount        float64
	Reference     string
	BillerName    string
	AccountNumber string
	DueDate       string
	Args          map[string]any
}

func decodePrepareBill(args map[string]any) Call {
	return PrepareBill{
		Amount:        amountArg(args),
		Reference:     stringArg(args, "reference"),
		BillerName:    stringArg(args, "biller_name"),
		AccountNumber: stringArg(args, "account_number"),
		DueDate:       stringArg(args, "due_date"),
		Args:          args,
	}
}

func (c PrepareBill) Render(*models.BankingState) (Decision, bool) {
	decline := bind(actions.DeclineBill, c.Args)
	return Decision{
		Kind: KindPaymentCard,
		Card: &PaymentCard{
			Mode:                ModeBill,
			Amount:              c.Amount,
			Reference:           c.Reference,
			BillerName:          c.BillerName,
			BillerAccountNumber: c.AccountNumber,
			DueDate:             c.DueDate,
			Category:            CategoryFor(c.BillerName),
			Approve:             bind(actions.ApproveBill, c.Args),
			Decline:             decline,
			// bills have no edit flow
			Edit: bind(actions.DeclineBill, c.Args),
		},
	}, true
}

type ConfirmBill struct{}

func (ConfirmBill) Render(state *models.BankingState) (Decision, bool) {
	return completion("Bill Payment Completed", "Your bill payment was successful.", state), true
}

// Unknown is any tool name without a registered decoder. It renders nothing.
type Unknown struct {
	Name string
}

func (Unknown) Render(*models.BankingState) (Decision, bool) {
	return Decision{}, false
}

func completion(title, fallback string, state *models.BankingState) Decision {
	text := fallback
	if last, ok := state.LastTransaction(); ok && last != "" {
		text = last
	}
	return Decision{Kind: KindCompletion, Title: title, Text: text}
}

func bind(a actions.Action, args map[string]any) Binding {
	return Binding{Action: a, Args: maps.Clone(args)}
}

// amountArg coerces args["amount"] to a number. Missing or unparseable
// values are 0.
func amountArg(args map[string]any) float64 {
	v, ok := args["amount"]
	if !ok || v == nil {
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

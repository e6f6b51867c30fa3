package models

import "maps"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolCall status values
const (
	ToolStatusExecuting = "executing"
	ToolStatusComplete  = "complete"
)

// BankingStatus mirrors the server-side banking state machine. The client
// never originates transitions.
type BankingStatus string

const (
	StatusIdle               BankingStatus = "idle"
	StatusConfirmingTransfer BankingStatus = "confirming_transfer"
	StatusConfirmingBill     BankingStatus = "confirming_bill"
	StatusCompleted          BankingStatus = "completed"
	StatusError              BankingStatus = "error"
)

// GreetingID is the id of the synthetic greeting seeded into an empty transcript.
const GreetingID = "greeting"

// Image is a base64-encoded attachment on a user message.
type Image struct {
	Format string `json:"format"`
	Bytes  string `json:"bytes"`
}

type ToolCall struct {
	ToolName string         `json:"tool_name"`
	Args     map[string]any `json:"args"`
	Status   string         `json:"status"`
}

func (tc ToolCall) IsExecuting() bool {
	return tc.Status == ToolStatusExecuting
}

type TransferDetails struct {
	RecipientName string  `json:"recipient_name"`
	BankName      string  `json:"bank_name"`
	AccountNumber string  `json:"account_number"`
	Amount        float64 `json:"amount"`
	Reference     string  `json:"reference,omitempty"`
}

type BillDetails struct {
	BillerName      string  `json:"biller_name"`
	AccountNumber   string  `json:"account_number"`
	Amount          float64 `json:"amount"`
	DueDate         string  `json:"due_date,omitempty"`
	ReferenceNumber string  `json:"reference_number,omitempty"`
}

type BankingState struct {
	Balance            float64          `json:"balance"`
	PendingTransfer    *TransferDetails `json:"pending_transfer"`
	PendingBill        *BillDetails     `json:"pending_bill"`
	TransactionHistory []string         `json:"transaction_history"`
	Status             BankingStatus    `json:"status"`
}

// NewBankingState returns an idle state holding the given balance.
func NewBankingState(balance float64) BankingState {
	return BankingState{
		Balance:            balance,
		TransactionHistory: []string{},
		Status:             StatusIdle,
	}
}

// LastTransaction returns the most recent history entry.
func (s *BankingState) LastTransaction() (string, bool) {
	if s == nil || len(s.TransactionHistory) == 0 {
		return "", false
	}
	return s.TransactionHistory[len(s.TransactionHistory)-1], true
}

// Clone returns a deep copy so snapshots never share memory with live state.
func (s *BankingState) Clone() *BankingState {
	if s == nil {
		return nil
	}
	out := *s
	if s.PendingTransfer != nil {
		t := *s.PendingTransfer
		out.PendingTransfer = &t
	}
	if s.PendingBill != nil {
		b := *s.PendingBill
		out.PendingBill = &b
	}
	if s.TransactionHistory != nil {
		out.TransactionHistory = append([]string(nil), s.TransactionHistory...)
	}
	return &out
}

type ChatMessage struct {
	ID           string        `json:"id"`
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	Image        *Image        `json:"image,omitempty"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
	BankingState *BankingState `json:"banking_state,omitempty"`
}

// Clone deep-copies the message including its frozen snapshots.
func (m ChatMessage) Clone() ChatMessage {
	out := m
	if m.Image != nil {
		img := *m.Image
		out.Image = &img
	}
	out.ToolCalls = CloneToolCalls(m.ToolCalls)
	out.BankingState = m.BankingState.Clone()
	return out
}

// CloneToolCalls copies the slice and each call's args map. Arg values are
// shared; they come from JSON decoding and are treated as read-only.
func CloneToolCalls(calls []ToolCall) []ToolCall {
	if calls == nil {
		return nil
	}
	out := make([]ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = tc
		if tc.Args != nil {
			out[i].Args = maps.Clone(tc.Args)
		}
	}
	return out
}

// ChatListItem is one archived conversation in the history modal.
type ChatListItem struct {
	ID             int64
	ConversationID string
	SessionID      string
	UpdatedAtUnix  int64
	LastUserPrompt string
}

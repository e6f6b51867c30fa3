package actions

import (
	"context"
	"fmt"

	"jomkira/internal/logger"
	"jomkira/internal/models"

	"go.uber.org/zap"
)

// Action is a user intent on a payment card.
type Action int

const (
	ApproveTransfer Action = iota + 1
	DeclineTransfer
	EditTransfer
	ApproveBill
	DeclineBill
)

var phrases = map[Action]string{
	ApproveTransfer: "Yes, proceed with the transfer.",
	DeclineTransfer: "No, cancel the transfer.",
	EditTransfer:    "I need to edit the transfer details.",
	ApproveBill:     "Yes, proceed with the bill payment.",
	DeclineBill:     "No, cancel the bill payment.",
}

var names = map[Action]string{
	ApproveTransfer: "approve_transfer",
	DeclineTransfer: "decline_transfer",
	EditTransfer:    "edit_transfer",
	ApproveBill:     "approve_bill",
	DeclineBill:     "decline_bill",
}

func (a Action) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Message returns the canned phrase sent to the assistant for a.
func (a Action) Message() string {
	return phrases[a]
}

func (a Action) Valid() bool {
	_, ok := phrases[a]
	return ok
}

func (a Action) isApproval() bool {
	return a == ApproveTransfer || a == ApproveBill
}

// Sender is satisfied by *chat.Session.
type Sender interface {
	SendMessage(ctx context.Context, text string, image *models.Image) (models.ChatMessage, bool)
}

// Mapper turns card intents into chat turns. It never touches banking state;
// the server decides what the phrase means.
type Mapper struct {
	sender Sender
	log    *zap.Logger
}

func NewMapper(sender Sender, log *zap.Logger) *Mapper {
	return &Mapper{
		sender: sender,
		log:    logger.OrNop(log).Named(logger.Actions),
	}
}

// Dispatch sends the phrase for action. It returns the assistant reply and
// whether the turn succeeded; unknown actions are dropped.
func (m *Mapper) Dispatch(ctx context.Context, action Action, args map[string]any) (models.ChatMessage, bool) {
	if !action.Valid() {
		m.log.Warn("ignoring unknown action", zap.Int("action", int(action)))
		return models.ChatMessage{}, false
	}

	fields := []zap.Field{zap.Stringer("action", action)}
	if action.isApproval() {
		fields = append(fields, zap.Any("args", args))
	}
	m.log.Info("card action", fields...)

	return m.sender.SendMessage(ctx, action.Message(), nil)
}

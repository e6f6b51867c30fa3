package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"jomkira/internal/logger"
	"jomkira/internal/models"

	"go.uber.org/zap"
)

// Tool names the assistant backend emits.
const (
	PrepareTransferTool    = "prepare_transfer"
	ConfirmTransferTool    = "confirm_transfer"
	PrepareBillPaymentTool = "prepare_bill_payment"
	ConfirmBillPaymentTool = "confirm_bill_payment"
)

// Decoder turns the untyped args of a tool call into a typed Call.
type Decoder func(args map[string]any) Call

// Registry maps tool names to decoders. Render is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		decoders: make(map[string]Decoder),
		log:      logger.OrNop(log).Named(logger.Tools),
	}
}

// NewBankingRegistry registers the transfer tools and, when bills is set, the
// bill payment tools.
func NewBankingRegistry(log *zap.Logger, bills bool) *Registry {
	r := NewRegistry(log)
	r.Register(PrepareTransferTool, decodePrepareTransfer)
	r.Register(ConfirmTransferTool, func(map[string]any) Call { return ConfirmTransfer{} })
	if bills {
		r.Register(PrepareBillPaymentTool, decodePrepareBill)
		r.Register(ConfirmBillPaymentTool, func(map[string]any) Call { return ConfirmBill{} })
	}
	return r
}

// Register adds or replaces the decoder for name.
func (r *Registry) Register(name string, dec Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[name] = dec
}

// Names lists registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.decoders))
	for name := range r.decoders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Parse decodes tc. Unregistered names yield Unknown.
func (r *Registry) Parse(tc models.ToolCall) Call {
	r.mu.RLock()
	dec, ok := r.decoders[tc.ToolName]
	r.mu.RUnlock()
	if !ok {
		return Unknown{Name: tc.ToolName}
	}
	return dec(tc.Args)
}

// Render turns the tool calls of one assistant turn into render decisions.
// state is the snapshot frozen on that turn and may be nil. Identical inputs
// produce equal outputs.
func (r *Registry) Render(calls []models.ToolCall, state *models.BankingState) []Decision {
	var out []Decision
	for i, tc := range calls {
		r.log.Debug("processing tool call",
			zap.Int("index", i),
			zap.String("tool", tc.ToolName),
			zap.String("status", tc.Status),
		)

		if tc.IsExecuting() {
			out = append(out, Decision{
				Kind:     KindLoading,
				ToolName: tc.ToolName,
				Text:     LoadingText(tc.ToolName),
			})
			continue
		}

		call := r.Parse(tc)
		if u, ok := call.(Unknown); ok {
			r.log.Warn("unknown tool call", zap.String("tool", u.Name))
			continue
		}
		if d, ok := call.Render(state); ok {
			d.ToolName = tc.ToolName
			out = append(out, d)
		}
	}
	return out
}

func LoadingText(name string) string {
	return fmt.Sprintf("Processing %s...", name)
}

// Summary is a one-line description of a tool call for status lines and the
// history list.
func (r *Registry) Summary(tc models.ToolCall) string {
	if tc.IsExecuting() {
		return LoadingText(tc.ToolName)
	}
	switch c := r.Parse(tc).(type) {
	case PrepareTransfer:
		return fmt.Sprintf("TRANSFER %.2f to %s", c.Amount, c.RecipientName)
	case PrepareBill:
		return fmt.Sprintf("BILL %.2f to %s", c.Amount, c.BillerName)
	case ConfirmTransfer:
		return "TRANSFER done"
	case ConfirmBill:
		return "BILL done"
	default:
		return fmt.Sprintf("%s called", strings.ToUpper(tc.ToolName))
	}
}

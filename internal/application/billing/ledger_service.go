package billing

import (
	"context"
	"fmt"

	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/infrastructure/export"
	"github.com/waterbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LedgerService folds committed bills and transactions into summaries
type LedgerService struct {
	ledger       billing.LedgerRepository
	transactions billing.TransactionRepository
	exporter     *export.LedgerExporter
	currency     string
	authz        *Authorizer
	logger       *zap.Logger
}

// NewLedgerService creates a new LedgerService. exporter may be nil, in
// which case Export reports INVALID_STATE.
func NewLedgerService(
	ledger billing.LedgerRepository,
	transactions billing.TransactionRepository,
	exporter *export.LedgerExporter,
	currency string,
	authz *Authorizer,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		ledger:       ledger,
		transactions: transactions,
		exporter:     exporter,
		currency:     currency,
		authz:        authz,
		logger:       logger,
	}
}

// Summarize computes the financial summary of a date range from one
// consistent snapshot. It has no side effects.
func (s *LedgerService) Summarize(ctx context.Context, actor identity.Actor, r billing.DateRange) (*SummaryResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpLedgerSummarize); err != nil {
		return nil, err
	}
	summary, _, err := s.summarize(ctx, r)
	if err != nil {
		return nil, err
	}
	resp := toSummaryResponse(summary)
	return &resp, nil
}

// Transactions lists the payments recorded in a date range, oldest first
func (s *LedgerService) Transactions(ctx context.Context, actor identity.Actor, r billing.DateRange) ([]TransactionResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpLedgerSummarize); err != nil {
		return nil, err
	}
	txns, err := s.transactions.FindByDateRange(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return toTransactionResponses(txns), nil
}

// Export writes the transactions and summary of a date range to the storage sink
func (s *LedgerService) Export(ctx context.Context, actor identity.Actor, r billing.DateRange) (*ExportResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "export")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.AttrRole, actor.Role.String())

	if err := s.authz.Require(ctx, actor, identity.OpLedgerExport); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.exporter == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Ledger export is not configured")
	}

	summary, snap, err := s.summarize(ctx, r)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	out, err := s.exporter.Export(ctx, summary, snap.Transactions)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to export ledger: %w", err)
	}

	s.logger.Info("Ledger exported",
		zap.Time("from", r.From),
		zap.Time("to", r.To),
		zap.Int("rows", out.Rows),
		zap.String("key", out.TransactionsKey))
	return &ExportResponse{
		TransactionsKey:      out.TransactionsKey,
		TransactionsLocation: out.TransactionsLocation,
		SummaryKey:           out.SummaryKey,
		SummaryLocation:      out.SummaryLocation,
		Rows:                 out.Rows,
	}, nil
}

func (s *LedgerService) summarize(ctx context.Context, r billing.DateRange) (billing.FinancialSummary, *billing.LedgerSnapshot, error) {
	snap, err := s.ledger.Snapshot(ctx, r)
	if err != nil {
		return billing.FinancialSummary{}, nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	if snap == nil {
		snap = &billing.LedgerSnapshot{}
	}
	return billing.Summarize(r, s.currency, *snap), snap, nil
}

package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"github.com/waterbill/backend/internal/infrastructure/printing"
	"github.com/waterbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Receipt output formats
const (
	ReceiptFormatHTML = "html"
	ReceiptFormatPDF  = "pdf"
)

// ReceiptService prints receipts for paid bills
type ReceiptService struct {
	bills        billing.BillRepository
	transactions billing.TransactionRepository
	customers    billing.CustomerRepository
	renderer     *printing.ReceiptRenderer
	pdf          printing.PDFRenderer
	company      config.CompanyConfig
	authz        *Authorizer
	logger       *zap.Logger
}

// NewReceiptService creates a new ReceiptService. pdf may be nil when PDF
// rendering is disabled.
func NewReceiptService(
	bills billing.BillRepository,
	transactions billing.TransactionRepository,
	customers billing.CustomerRepository,
	renderer *printing.ReceiptRenderer,
	pdf printing.PDFRenderer,
	company config.CompanyConfig,
	authz *Authorizer,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		bills:        bills,
		transactions: transactions,
		customers:    customers,
		renderer:     renderer,
		pdf:          pdf,
		company:      company,
		authz:        authz,
		logger:       logger,
	}
}

// Company returns the provider settings printed on receipts
func (s *ReceiptService) Company() config.CompanyConfig {
	return s.company
}

// Print renders the receipt of a PAID bill as HTML or PDF
func (s *ReceiptService) Print(ctx context.Context, actor identity.Actor, billID uuid.UUID, format string) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "print")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.AttrBillID, billID.String())

	resp, err := s.print(ctx, actor, billID, strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (s *ReceiptService) print(ctx context.Context, actor identity.Actor, billID uuid.UUID, format string) (*ReceiptResponse, error) {
	if format == "" {
		format = ReceiptFormatHTML
	}
	if format != ReceiptFormatHTML && format != ReceiptFormatPDF {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unsupported receipt format: "+format)
	}
	if err := s.authz.Require(ctx, actor, identity.OpBillReadOwn); err != nil {
		return nil, err
	}

	bill, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	if bill == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Bill not found")
	}
	if !s.authz.Allows(actor, identity.OpBillRead) && !actor.OwnsCustomer(bill.CustomerID) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Bill belongs to another customer")
	}
	if bill.Status != billing.BillStatusPaid {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Receipts are printed for PAID bills only, this bill is %s", bill.Status))
	}

	txn, err := s.transactions.FindByBillID(ctx, bill.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Bill has no payment transaction")
	}
	customer, err := s.customers.FindByID(ctx, bill.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Customer not found")
	}

	html, err := s.renderer.RenderHTML(printing.ReceiptData{
		Company:     s.company,
		Customer:    customer,
		Bill:        bill,
		Transaction: txn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	resp := &ReceiptResponse{
		BillID:          bill.ID,
		ReferenceNumber: txn.ReferenceNumber,
		ContentType:     "text/html; charset=utf-8",
		Content:         html,
	}
	if format == ReceiptFormatHTML {
		return resp, nil
	}

	if s.pdf == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "PDF receipts are not enabled")
	}
	result, err := s.pdf.Render(ctx, &printing.RenderRequest{
		HTML:      string(html),
		Title:     "Receipt " + txn.ReferenceNumber,
		PaperSize: printing.PaperSizeA5,
		Margins:   printing.DefaultMargins(),
	})
	if err != nil {
		var renderErr *printing.RenderError
		if errors.As(err, &renderErr) {
			s.logger.Error("Receipt PDF rendering failed",
				zap.String("bill_id", bill.ID.String()),
				zap.String("code", string(renderErr.Code)),
				zap.Error(err))
		}
		return nil, fmt.Errorf("failed to render receipt pdf: %w", err)
	}
	resp.ContentType = "application/pdf"
	resp.Content = result.PDFData
	return resp, nil
}

package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Metric attribute keys
var (
	AttrKeyPeriod    = attribute.Key("period")
	AttrKeyMethod    = attribute.Key("method")
	AttrKeyCurrency  = attribute.Key("currency")
	AttrKeyRole      = attribute.Key("role")
	AttrKeyOperation = attribute.Key("operation")
)

// BillingMetrics holds the business counters of the billing engine
type BillingMetrics struct {
	billsCreated        *Counter
	paymentsRecorded    *Counter
	amountCollected     *FloatCounter
	billsCancelled      *Counter
	authorizationDenied *Counter
}

// NewBillingMetrics registers the billing counters on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   BillingMetrics
		err error
	)
	if m.billsCreated, err = NewCounter(meter, "billing_bills_created_total", "Bills issued", "{bill}"); err != nil {
		return nil, err
	}
	if m.paymentsRecorded, err = NewCounter(meter, "billing_payments_recorded_total", "Bills settled", "{payment}"); err != nil {
		return nil, err
	}
	if m.amountCollected, err = NewFloatCounter(meter, "billing_amount_collected_total", "Amount collected in the billing currency", "{currency}"); err != nil {
		return nil, err
	}
	if m.billsCancelled, err = NewCounter(meter, "billing_bills_cancelled_total", "Bills cancelled", "{bill}"); err != nil {
		return nil, err
	}
	if m.authorizationDenied, err = NewCounter(meter, "billing_authorization_denied_total", "Operations rejected by the authorization gate", "{request}"); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *BillingMetrics) RecordBillCreated(ctx context.Context, period string) {
	m.billsCreated.Inc(ctx, AttrKeyPeriod.String(period))
}

// RecordPayment counts a settled bill and adds its amount. The float
// conversion only feeds the exported metric; ledger sums stay decimal.
func (m *BillingMetrics) RecordPayment(ctx context.Context, method, currency string, amount decimal.Decimal) {
	m.paymentsRecorded.Inc(ctx, AttrKeyMethod.String(method))
	m.amountCollected.Add(ctx, amount.InexactFloat64(), AttrKeyCurrency.String(currency), AttrKeyMethod.String(method))
}

func (m *BillingMetrics) RecordBillCancelled(ctx context.Context) {
	m.billsCancelled.Inc(ctx)
}

func (m *BillingMetrics) RecordAuthorizationDenied(ctx context.Context, role, operation string) {
	m.authorizationDenied.Inc(ctx, AttrKeyRole.String(role), AttrKeyOperation.String(operation))
}

// Package billing holds the water billing and financial ledger domain.
//
// Readings are turned into bills using the tariff assigned to the customer for
// the billing period. Bills move through UNPAID -> PAID or UNPAID -> CANCELLED;
// paying a bill produces exactly one immutable Transaction. Financial summaries
// are derived on demand from bills and transactions and never persisted.
//
// Key Aggregates:
//   - Customer: metered account with its current tariff, never physically deleted
//   - Tariff: base fee plus per-cubic-meter rate
//   - Bill: the payment lifecycle, carrying a snapshot of the tariff it was priced with
//
// Entities and values:
//   - TariffAssignment: tariff history per customer, keyed by effective period
//   - Reading: previous/current meter index pair for a period
//   - Transaction: completed payment against a bill
//   - FinancialSummary: collected/outstanding totals over a DateRange
package billing

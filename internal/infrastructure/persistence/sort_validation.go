package persistence

import (
	"fmt"
	"strings"

	"github.com/waterbill/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"meter_number": true,
	"name":         true,
	"status":       true,
}

// TariffSortFields contains allowed sort fields for tariffs
var TariffSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"base_fee":       true,
	"rate_per_cubic": true,
}

// BillSortFields contains allowed sort fields for bills
var BillSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"period":     true,
	"amount":     true,
	"status":     true,
	"paid_at":    true,
}

// paginate applies whitelisted ordering and paging from filter
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	filter.Normalize()
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	order := ValidateSortOrder(filter.OrderDir)
	return query.
		Order(fmt.Sprintf("%s %s", field, order)).
		Order("id " + order).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}

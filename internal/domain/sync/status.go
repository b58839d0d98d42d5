package sync

import (
	"github.com/bloomshop/backend/internal/domain/ordering"
)

// crmStatusTable is the fixed, exhaustive mapping from CRM order-status
// codes to internal lifecycle states. Lookup of an unlisted code fails
// with ErrUnknownStatusCode; codes are never guessed.
var crmStatusTable = map[string]ordering.OrderStatus{
	"N":  ordering.OrderStatusNew,
	"PD": ordering.OrderStatusPaid,
	"AP": ordering.OrderStatusAccepted,
	"CO": ordering.OrderStatusInProduction,
	"DE": ordering.OrderStatusInDelivery,
	"F":  ordering.OrderStatusDelivered,
	"RF": ordering.OrderStatusCancelled,
	"UN": ordering.OrderStatusCancelled,
}

// internalStatusTable is the reverse direction. It is not required to be
// total: status sync is one-directional (CRM to platform), so the
// reverse is kept only for diagnostics and future outbound use.
// CANCELLED maps back to RF ("refused"), the CRM's primary cancel code.
var internalStatusTable = map[ordering.OrderStatus]string{
	ordering.OrderStatusNew:          "N",
	ordering.OrderStatusPaid:         "PD",
	ordering.OrderStatusAccepted:     "AP",
	ordering.OrderStatusInProduction: "CO",
	ordering.OrderStatusInDelivery:   "DE",
	ordering.OrderStatusDelivered:    "F",
	ordering.OrderStatusCancelled:    "RF",
}

// StatusFromCRMCode maps a CRM status code to the internal lifecycle
// state. Unknown codes are rejected, not silently dropped.
func StatusFromCRMCode(code string) (ordering.OrderStatus, error) {
	status, ok := crmStatusTable[code]
	if !ok {
		return "", ErrUnknownStatusCode
	}
	return status, nil
}

// CRMCodeForStatus maps an internal lifecycle state back to its CRM
// code. The second return value is false for states the CRM has no
// code for.
func CRMCodeForStatus(status ordering.OrderStatus) (string, bool) {
	code, ok := internalStatusTable[status]
	return code, ok
}

// KnownCRMCodes returns all CRM status codes present in the table
func KnownCRMCodes() []string {
	codes := make([]string, 0, len(crmStatusTable))
	for code := range crmStatusTable {
		codes = append(codes, code)
	}
	return codes
}

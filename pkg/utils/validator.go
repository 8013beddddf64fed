package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var invoiceNumberRegex = regexp.MustCompile(`^INV-\d{8}-[0-9A-F]{8}$`)

// ValidateInvoiceNumber validates the INV-YYYYMMDD-XXXXXXXX batch number shape
func ValidateInvoiceNumber(number string) error {
	if !invoiceNumberRegex.MatchString(number) {
		return fmt.Errorf("invalid invoice number format: %s", number)
	}
	return nil
}

// ValidateItemID validates a work ledger item id
func ValidateItemID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("item id must not be blank")
	}
	return nil
}

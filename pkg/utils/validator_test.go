package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInvoiceNumber(t *testing.T) {
	assert.NoError(t, ValidateInvoiceNumber("INV-20260314-ABCD1234"))

	for _, number := range []string{
		"",
		"INV-NOPE",
		"INV-2026031-ABCD1234",
		"INV-20260314-abcd1234",
		"INV-20260314-ABCD123",
		"inv-20260314-ABCD1234",
	} {
		assert.Error(t, ValidateInvoiceNumber(number), number)
	}
}

func TestValidateItemID(t *testing.T) {
	assert.NoError(t, ValidateItemID("W7"))
	assert.Error(t, ValidateItemID(""))
	assert.Error(t, ValidateItemID("   "))
}

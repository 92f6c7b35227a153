package validate

import "github.com/josh-kwaku/audit-validator/internal/domain"

// matchTaxTable scans the tax table for an entry with the same type and
// region, the same percentage or fixed amount, and no expiration on or
// before date.
func matchTaxTable(table []domain.TaxTableEntry, tax *domain.Tax, date domain.Date) bool {
	for i := range table {
		e := &table[i]
		if e.TaxType != tax.TaxType || e.TaxCountryRegion != tax.TaxCountryRegion {
			continue
		}
		if e.TaxExpirationDate != nil && !e.TaxExpirationDate.After(date.Time) {
			continue
		}
		if tax.TaxPercentage != nil && e.TaxPercentage != nil && e.TaxPercentage.Equal(*tax.TaxPercentage) {
			return true
		}
		if tax.TaxAmount != nil && e.TaxAmount != nil && e.TaxAmount.Equal(*tax.TaxAmount) {
			return true
		}
	}
	return false
}

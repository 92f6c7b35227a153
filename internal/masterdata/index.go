// Package masterdata indexes the audit file's master tables for the lookups
// the document validator performs.
package masterdata

import (
	"fmt"

	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/report"
)

const table = "MasterFiles"

type Index struct {
	customers map[string]*domain.Customer
	suppliers map[string]*domain.Supplier
	products  map[string]*domain.Product
	taxTable  []domain.TaxTableEntry
}

// NewIndex builds the lookups. Duplicate identifiers are reported to sink and
// the first occurrence wins.
func NewIndex(mf *domain.MasterFiles, sink report.Sink) *Index {
	idx := &Index{
		customers: make(map[string]*domain.Customer, len(mf.Customers)),
		suppliers: make(map[string]*domain.Supplier, len(mf.Suppliers)),
		products:  make(map[string]*domain.Product, len(mf.Products)),
		taxTable:  mf.TaxTable,
	}

	for i := range mf.Customers {
		c := &mf.Customers[i]
		if _, dup := idx.customers[c.CustomerID]; dup {
			sink.AddValidationError(duplicate("CustomerID", c.CustomerID))
			continue
		}
		idx.customers[c.CustomerID] = c
	}
	for i := range mf.Suppliers {
		s := &mf.Suppliers[i]
		if _, dup := idx.suppliers[s.SupplierID]; dup {
			sink.AddValidationError(duplicate("SupplierID", s.SupplierID))
			continue
		}
		idx.suppliers[s.SupplierID] = s
	}
	for i := range mf.Products {
		p := &mf.Products[i]
		if _, dup := idx.products[p.ProductCode]; dup {
			sink.AddValidationError(duplicate("ProductCode", p.ProductCode))
			continue
		}
		idx.products[p.ProductCode] = p
	}
	return idx
}

func duplicate(field, id string) report.Entry {
	return report.Entry{
		Table:   table,
		Field:   field,
		Message: fmt.Sprintf("duplicate identifier %q", id),
	}
}

func (idx *Index) CustomerExists(id string) bool {
	_, ok := idx.customers[id]
	return ok
}

func (idx *Index) SupplierExists(id string) bool {
	_, ok := idx.suppliers[id]
	return ok
}

func (idx *Index) Customer(id string) (*domain.Customer, bool) {
	c, ok := idx.customers[id]
	return c, ok
}

func (idx *Index) Product(code string) (*domain.Product, bool) {
	p, ok := idx.products[code]
	return p, ok
}

func (idx *Index) TaxTable() []domain.TaxTableEntry {
	return idx.taxTable
}

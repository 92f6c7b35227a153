package validate

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/money"
)

type side int

const (
	sideCredit side = iota
	sideDebit
)

type flow struct {
	qty money.Value
	val money.Value
}

// docAccumulator holds the running totals of one document.
type docAccumulator struct {
	net       money.Value
	tax       money.Value
	seen      [2]bool
	firstSide side
	products  map[string]*[2]flow
}

func newDocAccumulator() *docAccumulator {
	return &docAccumulator{
		net:      money.Zero(money.ScaleCalc),
		tax:      money.Zero(money.ScaleCalc),
		products: make(map[string]*[2]flow),
	}
}

func (a *docAccumulator) record(product string, s side, qty *decimal.Decimal, amount money.Value) {
	if !a.seen[sideCredit] && !a.seen[sideDebit] {
		a.firstSide = s
	}
	a.seen[s] = true

	p, ok := a.products[product]
	if !ok {
		p = &[2]flow{
			{qty: money.Zero(money.ScaleCalc), val: money.Zero(money.ScaleCalc)},
			{qty: money.Zero(money.ScaleCalc), val: money.Zero(money.ScaleCalc)},
		}
		a.products[product] = p
	}
	if qty != nil {
		p[s].qty.Add(*qty)
	}
	p[s].val.Add(amount.Decimal())
}

type lineNumbering struct {
	strict  bool
	next    int
	seen    map[int]bool
	stopped bool
}

// check validates the line number. The first violation stops numbering checks
// for the rest of the document.
func (n *lineNumbering) check(c *docCheck, l *domain.Line) {
	if n.stopped {
		return
	}
	n.next++
	if l.LineNumber == nil {
		c.lineErrorf(l, "LineNumber", "line number is missing")
		n.stopped = true
		return
	}

	ln := *l.LineNumber
	if n.strict {
		if ln != n.next {
			c.lineErrorf(l, "LineNumber", "expected line number %d, found %d", n.next, ln)
			n.stopped = true
		}
		return
	}
	if n.seen[ln] {
		c.lineErrorf(l, "LineNumber", "duplicate line number %d", ln)
		n.stopped = true
		return
	}
	n.seen[ln] = true
}

func (c *docCheck) reconcileLines(views []lineView, rules lineRules, excluded bool) *docAccumulator {
	acc := newDocAccumulator()
	if len(views) == 0 {
		c.errorf("Lines", "document has no lines")
		return acc
	}

	num := &lineNumbering{strict: c.run.cfg.ContinuousLines, seen: make(map[int]bool)}
	for i, lv := range views {
		c.reconcileLine(i+1, lv, rules, excluded, num, acc)
	}
	c.checkMixedSides(acc)
	return acc
}

func (c *docCheck) reconcileLine(pos int, lv lineView, rules lineRules, excluded bool, num *lineNumbering, acc *docAccumulator) {
	l := lv.Line
	num.check(c, l)

	if rules.priced {
		if l.Quantity == nil {
			c.lineErrorf(l, "Quantity", "quantity is missing")
		}
		if l.UnitPrice == nil {
			c.lineErrorf(l, "UnitPrice", "unit price is missing")
		}
		if l.Quantity == nil || l.UnitPrice == nil {
			return
		}
	}

	var (
		amount decimal.Decimal
		field  string
		s      side
	)
	switch {
	case l.DebitAmount == nil && l.CreditAmount == nil:
		c.lineErrorf(l, "CreditAmount", "line has neither a debit nor a credit amount")
		return
	case l.DebitAmount != nil && l.CreditAmount != nil:
		c.lineErrorf(l, "DebitAmount", "line has both a debit and a credit amount")
		return
	case l.DebitAmount != nil:
		amount, field, s = l.DebitAmount.Neg(), "DebitAmount", sideDebit
	default:
		amount, field, s = *l.CreditAmount, "CreditAmount", sideCredit
	}
	abs := money.New(amount, money.ScaleCalc).Abs()

	if rules.priced {
		expected := money.New(*l.Quantity, money.ScaleCalc).Mul(*l.UnitPrice)
		if expected.Differs(abs.Decimal(), c.run.cfg.DeltaLine) {
			c.lineErrorf(l, field, "quantity times unit price is %s, line amount is %s", expected, abs)
		}
	}

	tax := c.lineTax(lv, abs, rules)

	if !excluded {
		if s == sideDebit {
			c.run.debit.Add(*l.DebitAmount)
		} else {
			c.run.credit.Add(*l.CreditAmount)
		}
		if rules.quantities {
			c.run.lines++
			c.run.qty.Add(*l.Quantity)
		}
	}

	if rules.priced {
		c.checkProduct(l)
	}

	acc.net.Add(amount)
	if s == sideDebit {
		acc.tax.Add(tax.Neg())
	} else {
		acc.tax.Add(tax)
	}
	acc.record(l.ProductCode, s, l.Quantity, abs)
	c.rec.Lines[pos] = abs.Decimal().Add(tax)
}

// lineTax returns the recomputed tax of the line, always non-negative.
func (c *docCheck) lineTax(lv lineView, abs money.Value, rules lineRules) decimal.Decimal {
	l := lv.Line
	tax := l.Tax
	if tax == nil {
		if rules.taxRequired {
			c.lineErrorf(l, "Tax", "line has no tax")
		}
		return decimal.Zero
	}

	switch {
	case !tax.TaxType.IsValid():
		c.lineErrorf(l, "TaxType", "unknown tax type %q", tax.TaxType)
	case !tax.TaxCode.ValidFor(tax.TaxType):
		c.lineErrorf(l, "TaxCode", "tax code %q is not valid for %s", tax.TaxCode, tax.TaxType)
	}

	exempt := tax.TaxCode == domain.TaxCodeExempt || tax.TaxType == domain.TaxTypeNS
	amount := money.Zero(money.ScaleCalc)
	switch {
	case tax.TaxAmount != nil:
		amount = money.New(*tax.TaxAmount, money.ScaleCalc)
	case tax.TaxPercentage != nil:
		base := abs
		if lv.taxBase != nil {
			base = money.New(*lv.taxBase, money.ScaleCalc)
		}
		amount = base.Mul(tax.TaxPercentage.Shift(-2))
		if tax.TaxPercentage.IsZero() {
			exempt = true
		}
	default:
		c.lineErrorf(l, "TaxPercentage", "tax has neither a percentage nor an amount")
	}

	c.checkExemption(l, exempt)

	if !matchTaxTable(c.run.master.TaxTable(), tax, c.hdr.Date) {
		c.lineErrorf(l, "Tax", "no matching tax-table entry for %s %s %s", tax.TaxType, tax.TaxCountryRegion, tax.TaxCode)
	}
	return amount.Abs().Decimal()
}

func (c *docCheck) checkExemption(l *domain.Line, exempt bool) {
	hasCode := l.TaxExemptionCode != nil && *l.TaxExemptionCode != ""
	hasReason := l.TaxExemptionReason != nil && *l.TaxExemptionReason != ""

	if exempt {
		if !hasCode {
			c.lineErrorf(l, "TaxExemptionCode", "exempt line has no exemption code")
		}
		if !hasReason {
			c.lineErrorf(l, "TaxExemptionReason", "exempt line has no exemption reason")
		}
		return
	}
	if hasCode || hasReason {
		c.lineErrorf(l, "TaxExemptionCode", "exemption given on a taxed line")
	}
}

func (c *docCheck) checkProduct(l *domain.Line) {
	if l.ProductCode == "" {
		c.lineErrorf(l, "ProductCode", "product is missing")
		return
	}
	if _, ok := c.run.master.Product(l.ProductCode); !ok {
		c.lineErrorf(l, "ProductCode", "product %q not found in master data", l.ProductCode)
	}
}

// checkMixedSides handles documents carrying both debit and credit lines.
// When allowed, the lines on the opposite side of the first line cancel
// earlier ones and may not exceed them per product.
func (c *docCheck) checkMixedSides(acc *docAccumulator) {
	if !acc.seen[sideCredit] || !acc.seen[sideDebit] {
		return
	}
	if !c.run.cfg.AllowDebitAndCredit {
		c.errorf("Lines", "document mixes debit and credit lines")
		return
	}

	products := make([]string, 0, len(acc.products))
	for p := range acc.products {
		products = append(products, p)
	}
	slices.Sort(products)

	orig, cancel := acc.firstSide, 1-acc.firstSide
	for _, p := range products {
		f := acc.products[p]
		if f[cancel].qty.IsGreater(f[orig].qty.Decimal()) {
			c.errorf("Quantity", "cancelled quantity %s of product %q exceeds the original %s", f[cancel].qty, p, f[orig].qty)
		}
		if f[cancel].val.IsGreater(f[orig].val.Decimal()) {
			c.errorf("Lines", "cancelled value %s of product %q exceeds the original %s", f[cancel].val, p, f[orig].val)
		}
	}
}

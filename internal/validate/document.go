package validate

import (
	"fmt"

	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/money"
	"github.com/josh-kwaku/audit-validator/internal/report"
)

// docCheck carries one document through the reconciliation states.
type docCheck struct {
	run    *tableRun
	hdr    *domain.DocumentHeader
	typ    string
	number domain.DocumentNumber
	status statusView
	rec    *domain.RecomputedTotals
	first  bool
	failed bool
}

func validateDocument[D any](t *tableRun, f family[D], o ordered[D]) domain.DocumentResult {
	hdr := f.header(o.doc)
	hdr.Notes.Reset()
	hdr.Recomputed = domain.NewRecomputedTotals()

	views := f.lines(o.doc)
	for _, lv := range views {
		lv.Notes.Reset()
	}

	c := &docCheck{
		run:    t,
		hdr:    hdr,
		typ:    o.typ,
		number: o.number,
		status: f.status(o.doc),
		rec:    hdr.Recomputed,
	}

	_, validType := f.docType(o.doc)
	if c.preconditions(f.typeField(), validType, o.parsed) {
		t.codes.observe(o.number.Code, o.typ, t.table, hdr.Number)
		c.sequence()
		c.signature()
		c.dates()
		f.party(c, o.doc)
		c.checkStatus()
		acc := c.reconcileLines(views, f.lineRules(), f.excluded(c.status.code))
		c.totals(acc)
		f.extras(c, o.doc)
	}

	return domain.DocumentResult{Number: hdr.Number, Valid: !c.failed, Recomputed: *hdr.Recomputed}
}

// preconditions reports whether the fields every later state depends on are
// usable.
func (c *docCheck) preconditions(typeField string, validType, parsed bool) bool {
	ok := true
	switch {
	case c.hdr.Number == "":
		c.errorf("Number", "document number is missing")
		ok = false
	case !parsed:
		c.errorf("Number", "malformed document number %q", c.hdr.Number)
		ok = false
	}
	if !validType {
		c.errorf(typeField, "unknown document type %q", c.typ)
		ok = false
	}
	if c.hdr.Date.IsZero() {
		c.errorf("Date", "document date is missing")
		ok = false
	}
	if c.hdr.SystemEntryDate.IsZero() {
		c.errorf("SystemEntryDate", "system entry date is missing")
		ok = false
	}
	return ok
}

func (c *docCheck) sequence() {
	s := c.run.chain.advance(seriesKey(c.typ, c.number), c.number.Number)
	c.first = s.first
	if s.duplicate {
		c.errorf("Number", "duplicate document number %s", c.hdr.Number)
	}
	if s.gapLen() == 0 {
		return
	}
	if s.gapLen() > maxListedGap {
		from, to := c.numberAt(s.gapFrom), c.numberAt(s.gapTo)
		c.run.tableError(from, "Number", fmt.Sprintf("missing documents %s..%s (%d documents)", from, to, s.gapLen()))
		return
	}
	for n := s.gapFrom; n <= s.gapTo; n++ {
		missing := c.numberAt(n)
		c.run.tableError(missing, "Number", "missing document "+missing)
	}
}

func (c *docCheck) numberAt(n int) string {
	return domain.DocumentNumber{Code: c.number.Code, Series: c.number.Series, Number: n}.String()
}

func (c *docCheck) signature() {
	ch := &c.run.chain
	prev := ch.prevHash
	ch.prevHash = c.hdr.Hash

	if !c.run.cfg.SignValidation || c.status.sourceBilling == domain.SourceBillingIntegrated {
		return
	}
	if c.run.signer.Verify(c.hdr.Hash, c.hdr.Date, c.hdr.SystemEntryDate, c.hdr.Number, c.hdr.Totals.GrossTotal, prev) {
		return
	}
	if c.first {
		c.warnf("Hash", "signature of the first document in series %s does not verify", c.number.SeriesKey())
		return
	}
	c.errorf("Hash", "signature does not chain to the previous document in series %s", c.number.SeriesKey())
}

func (c *docCheck) dates() {
	h := c.run.file
	ch := &c.run.chain
	date, entry := c.hdr.Date, c.hdr.SystemEntryDate

	if !h.StartDate.IsZero() && date.Before(h.StartDate.Time) {
		c.errorf("Date", "document date %s is before the audit period start %s", date, h.StartDate)
	}
	if !h.EndDate.IsZero() && date.After(h.EndDate.Time) {
		c.errorf("Date", "document date %s is after the audit period end %s", date, h.EndDate)
	}
	if !c.first {
		if date.Before(ch.prevDate.Time) {
			c.errorf("Date", "document date %s precedes the previous document date %s", date, ch.prevDate)
		}
		if entry.Before(ch.prevEntry.Time) {
			c.errorf("SystemEntryDate", "system entry date %s precedes the previous document %s", entry, ch.prevEntry)
		}
	}
	if date.After(entry.Day().Time) {
		c.warnf("Date", "document date %s is after its system entry date %s", date, entry)
	}

	ch.prevDate = date
	ch.prevEntry = entry
}

func (c *docCheck) checkStatus() {
	s := c.status
	if !s.valid {
		c.errorf("Status", "unknown status %q", s.code)
	}
	switch {
	case s.date.IsZero():
		c.errorf("StatusDate", "status date is missing")
	case s.date.Day().Before(c.hdr.Date.Time):
		c.errorf("StatusDate", "status date %s precedes the document date %s", s.date, c.hdr.Date)
	}
	if s.cancelled && (s.reason == nil || *s.reason == "") {
		c.errorf("Reason", "cancelled document has no reason")
	}
	if s.sourceID == "" {
		c.errorf("SourceID", "status source is missing")
	}
	if !s.sourceBilling.IsValid() {
		c.errorf("SourceBilling", "unknown source billing %q", s.sourceBilling)
	}
}

// requireCustomer is the party rule of sales-side documents: a customer is
// mandatory and a supplier is not allowed.
func (c *docCheck) requireCustomer() {
	if c.hdr.SupplierID != nil && *c.hdr.SupplierID != "" {
		c.errorf("SupplierID", "document names supplier %q; only a customer is allowed", *c.hdr.SupplierID)
	}
	id := c.hdr.CustomerID
	if id == nil || *id == "" {
		c.errorf("CustomerID", "customer is missing")
		return
	}
	if !c.run.master.CustomerExists(*id) {
		c.errorf("CustomerID", "customer %q not found in master data", *id)
	}
}

func (c *docCheck) totals(acc *docAccumulator) {
	t := c.hdr.Totals
	delta := c.run.cfg.DeltaTotalDoc

	if !t.NetTotal.Add(t.TaxPayable).Equal(t.GrossTotal) {
		c.errorf("GrossTotal", "gross total %s is not net total %s plus tax payable %s", t.GrossTotal, t.NetTotal, t.TaxPayable)
	}

	net := acc.net.Abs()
	tax := acc.tax.Abs()
	gross := money.New(net.Decimal().Add(tax.Decimal()), money.ScaleCalc)

	if net.Differs(t.NetTotal, delta) {
		c.errorf("NetTotal", "declared %s, recomputed %s", t.NetTotal, net.Round(money.ScaleTotal))
	}
	if tax.Differs(t.TaxPayable, delta) {
		c.errorf("TaxPayable", "declared %s, recomputed %s", t.TaxPayable, tax.Round(money.ScaleTotal))
	}
	if gross.Differs(t.GrossTotal, delta) {
		c.errorf("GrossTotal", "declared %s, recomputed %s", t.GrossTotal, gross.Round(money.ScaleTotal))
	}

	c.rec.NetTotal = net.Round(money.ScaleTotal).Decimal()
	c.rec.TaxPayable = tax.Round(money.ScaleTotal).Decimal()
	c.rec.GrossTotal = gross.Round(money.ScaleTotal).Decimal()

	c.currency()
	for _, s := range t.Settlement {
		if s.SettlementAmount != nil && s.SettlementAmount.GreaterThan(t.GrossTotal) {
			c.warnf("SettlementAmount", "settlement %s exceeds gross total %s", s.SettlementAmount, t.GrossTotal)
		}
	}
}

func (c *docCheck) currency() {
	cur := c.hdr.Totals.Currency
	if cur == nil {
		return
	}
	if cur.CurrencyCode == c.run.file.CurrencyCode {
		c.errorf("CurrencyCode", "foreign currency %s is the file currency", cur.CurrencyCode)
	}
	if cur.CurrencyAmount == nil || cur.ExchangeRate == nil {
		c.errorf("CurrencyAmount", "currency amount and exchange rate are required")
		return
	}

	got := money.New(*cur.CurrencyAmount, money.ScaleCalc).Mul(*cur.ExchangeRate)
	gross := got.Round(money.ScaleTotal).Decimal()
	c.rec.GrossFromCurrency = &gross

	if got.Differs(c.hdr.Totals.GrossTotal, c.run.cfg.DeltaCurrency) {
		c.errorf("ExchangeRate", "currency amount %s at rate %s gives %s, gross total is %s",
			cur.CurrencyAmount, cur.ExchangeRate, gross, c.hdr.Totals.GrossTotal)
	}
}

// paymentMethods checks withholding against the gross total and the declared
// payment mechanisms against what remains to be paid.
func (c *docCheck) paymentMethods(withholding []domain.WithholdingTax) {
	t := c.hdr.Totals

	withheld := money.Zero(money.ScaleCalc)
	for _, w := range withholding {
		if !w.WithholdingTaxType.IsValid() {
			c.errorf("WithholdingTaxType", "unknown withholding tax type %q", w.WithholdingTaxType)
		}
		withheld.Add(w.WithholdingTaxAmount)
	}
	if withheld.IsGreater(t.GrossTotal) {
		c.errorf("WithholdingTaxAmount", "withholding tax %s exceeds gross total %s", withheld.Round(money.ScaleTotal), t.GrossTotal)
	}

	if len(t.PaymentMethods) == 0 {
		return
	}
	paid := money.Zero(money.ScaleCalc)
	for _, pm := range t.PaymentMethods {
		paid.Add(pm.PaymentAmount)
	}
	due := money.New(t.GrossTotal, money.ScaleCalc).Sub(withheld.Decimal(), money.ScaleCalc)
	if paid.Differs(due.Decimal(), c.run.cfg.DeltaPayment) {
		c.errorf("PaymentAmount", "payment methods sum to %s, gross total less withholding is %s",
			paid.Round(money.ScaleTotal), due.Round(money.ScaleTotal))
	}
}

func (c *docCheck) movementTimes(start, end *domain.DateTime, required bool) {
	if start == nil {
		if required {
			c.errorf("MovementStartTime", "movement start time is missing")
		}
		return
	}
	if start.Before(c.hdr.SystemEntryDate.Time) {
		c.errorf("MovementStartTime", "movement starts at %s, before the system entry date %s", start, c.hdr.SystemEntryDate)
	}
	if end != nil && end.Before(start.Time) {
		c.errorf("MovementEndTime", "movement ends at %s, before it starts at %s", end, start)
	}
}

func (c *docCheck) errorf(field, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.failed = true
	c.hdr.Notes.AddError(msg, field)
	c.run.sink.AddValidationError(c.entry(nil, field, msg))
}

func (c *docCheck) warnf(field, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.hdr.Notes.AddWarning(msg, field)
	c.run.sink.AddWarning(c.entry(nil, field, msg))
}

func (c *docCheck) lineErrorf(l *domain.Line, field, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.failed = true
	l.Notes.AddError(msg, field)
	c.run.sink.AddValidationError(c.entry(l, field, msg))
}

func (c *docCheck) lineWarnf(l *domain.Line, field, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.Notes.AddWarning(msg, field)
	c.run.sink.AddWarning(c.entry(l, field, msg))
}

func (c *docCheck) entry(l *domain.Line, field, msg string) report.Entry {
	e := report.Entry{Table: c.run.table, Document: c.hdr.Number, Field: field, Message: msg}
	if l != nil && l.LineNumber != nil {
		n := *l.LineNumber
		e.Line = &n
	}
	return e
}

package money

import (
	"github.com/shopspring/decimal"
)

const (
	// ScaleCalc is used for every intermediate computation.
	ScaleCalc int32 = 9
	// ScaleTotal matches the two decimals of externally declared totals.
	ScaleTotal int32 = 2
)

// Value is a decimal held at a fixed number of decimal places. Every
// operation rounds its result back to the value's scale (half away from zero).
type Value struct {
	d     decimal.Decimal
	scale int32
}

func New(d decimal.Decimal, scale int32) Value {
	return Value{d: d.Round(scale), scale: scale}
}

func Zero(scale int32) Value {
	return Value{d: decimal.Zero, scale: scale}
}

func FromString(s string, scale int32) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, err
	}
	return New(d, scale), nil
}

func (v Value) Decimal() decimal.Decimal { return v.d }
func (v Value) Scale() int32             { return v.scale }

// Add adds x in place.
func (v *Value) Add(x decimal.Decimal) {
	v.d = v.d.Add(x).Round(v.scale)
}

// Sub returns v - x at the requested scale.
func (v Value) Sub(x decimal.Decimal, scale int32) Value {
	return New(v.d.Sub(x), scale)
}

func (v Value) Mul(x decimal.Decimal) Value {
	return New(v.d.Mul(x), v.scale)
}

func (v Value) Abs() Value {
	return Value{d: v.d.Abs(), scale: v.scale}
}

func (v Value) Round(scale int32) Value {
	return New(v.d, scale)
}

func (v Value) Sign() int { return v.d.Sign() }

func (v Value) IsZero() bool { return v.d.IsZero() }

func (v Value) IsGreater(x decimal.Decimal) bool { return v.d.GreaterThan(x) }
func (v Value) IsLess(x decimal.Decimal) bool    { return v.d.LessThan(x) }
func (v Value) Equals(x decimal.Decimal) bool    { return v.d.Equal(x) }

// Differs reports whether |v - x| > delta.
func (v Value) Differs(x, delta decimal.Decimal) bool {
	return Exceeds(v.d, x, delta)
}

func (v Value) String() string {
	return v.d.StringFixed(v.scale)
}

// Exceeds reports whether |a - b| > delta.
func Exceeds(a, b, delta decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThan(delta)
}

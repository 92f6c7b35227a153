package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// Date is a calendar day as written in the audit file (yyyy-mm-dd).
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("ParseDate %q: %w", s, ErrInvalidDate)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText reads an empty value as the zero Date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalJSON and UnmarshalJSON shadow the promoted time.Time methods so the
// audit file layout is used instead of RFC 3339.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("Date.UnmarshalJSON: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// DateTime is a timestamp without zone (yyyy-mm-ddThh:mm:ss), read as UTC.
type DateTime struct {
	time.Time
}

func NewDateTime(year int, month time.Month, day, hour, min, sec int) DateTime {
	return DateTime{time.Date(year, month, day, hour, min, sec, 0, time.UTC)}
}

func ParseDateTime(s string) (DateTime, error) {
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return DateTime{}, fmt.Errorf("ParseDateTime %q: %w", s, ErrInvalidDate)
	}
	return DateTime{t}, nil
}

// Day truncates the timestamp to its calendar day.
func (d DateTime) Day() Date {
	y, m, dd := d.Date()
	return NewDate(y, m, dd)
}

func (d DateTime) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateTimeLayout)
}

func (d DateTime) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DateTime) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = DateTime{}
		return nil
	}
	v, err := ParseDateTime(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("DateTime.UnmarshalJSON: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

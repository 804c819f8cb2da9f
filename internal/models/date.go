package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atinyakov/habitxp/internal/calendar"
)

// Date is a calendar day without time-of-day. It travels as "YYYY-MM-DD"
// both in JSON and in SQL.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) Date {
	return Date{Time: calendar.Day(t)}
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return calendar.Format(d.Time)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := calendar.ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = calendar.Day(v)
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		d.Time = time.Time{}
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) parse(s string) error {
	if len(s) > len(calendar.Layout) {
		s = s[:len(calendar.Layout)]
	}
	t, err := calendar.ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

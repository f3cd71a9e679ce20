package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is how date_posted is written: UTC, second precision.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp stores a UTC time as "YYYY-MM-DD HH:MM:SS" text and reads it back from
// text (SQLite) or native timestamp columns (Postgres).
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

// String formats with TimestampLayout; templates print it directly.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// Value implements driver.Valuer for writing to DB.
func (t Timestamp) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner for reading from DB.
func (t *Timestamp) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return errors.New("unsupported type for Timestamp")
	}
}

func (t *Timestamp) parse(s string) error {
	for _, layout := range []string{TimestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// Listing is one car-for-sale record. Year, Mileage and Price are kept as submitted:
// the storage column types are the only coercion applied.
type Listing struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title        string    `gorm:"column:title;not null" json:"title"`
	Make         string    `gorm:"column:make;not null" json:"make"`
	Model        string    `gorm:"column:model;not null" json:"model"`
	Year         string    `gorm:"column:year;not null" json:"year"`
	Mileage      string    `gorm:"column:mileage;not null" json:"mileage"`
	Price        string    `gorm:"column:price;not null" json:"price"`
	Description  string    `gorm:"column:description" json:"description"`
	ContactEmail string    `gorm:"column:contact_email;not null" json:"contact_email"`
	DatePosted   Timestamp `gorm:"column:date_posted;not null" json:"date_posted"`
}

func (Listing) TableName() string {
	return "car_listings"
}

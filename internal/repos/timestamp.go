package repos

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// tsLayout is fixed-width so stored text timestamps sort chronologically.
const tsLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp stores instants as UTC text on SQLite and reads back either text or
// a native time.Time (PostgreSQL, or SQLite drivers that parse TIMESTAMP columns).
type Timestamp struct{ time.Time }

func (t Timestamp) Value() (driver.Value, error) {
	return t.UTC().Format(tsLayout), nil
}

var tsLayouts = []string{
	tsLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("timestamp: cannot scan %T", src)
}

func (t *Timestamp) parse(s string) error {
	for _, layout := range tsLayouts {
		if p, err := time.Parse(layout, s); err == nil {
			t.Time = p.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

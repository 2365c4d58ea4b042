package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Indexer is the tracked state of one named feed.
type Indexer struct {
	Name        string     `gorm:"primaryKey"`
	Link        string     `gorm:"not null"`
	LastPubDate PubDate    `gorm:"column:last_pub_date"`
	RecentGUIDs GUIDWindow `gorm:"column:recent_guids"`
	Health      Health     `gorm:"not null"`
}

type Indexers []Indexer

func (idx Indexers) Names() []string {
	names := make([]string, len(idx))
	for i, rec := range idx {
		names[i] = rec.Name
	}
	return names
}

type Health int

const (
	HealthUp Health = iota
	HealthDown
	HealthDisabled
)

func (h Health) String() string {
	switch h {
	case HealthUp:
		return "up"
	case HealthDown:
		return "down"
	case HealthDisabled:
		return "disabled"
	}
	return fmt.Sprintf("health(%d)", int(h))
}

// Outcome is the result of one poll, as seen by the health state machine.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeGone
)

// Next returns the health after a poll with the given outcome, and whether the
// transition is a down edge that the operator should be alerted about.
func (h Health) Next(o Outcome) (next Health, notifyDown bool) {
	switch o {
	case OutcomeGone:
		return HealthDisabled, false
	case OutcomeFailure:
		if h == HealthUp {
			return HealthDown, true
		}
		return h, false
	default:
		return HealthUp, false
	}
}

// PubDateLayout is the layout feeds use for pubDate, and the layout watermarks
// are persisted in.
const PubDateLayout = time.RFC1123Z

type PubDate struct {
	time.Time
}

func NewPubDate(t time.Time) PubDate {
	return PubDate{t.UTC()}
}

func ParsePubDate(s string) (PubDate, error) {
	t, err := time.Parse(PubDateLayout, s)
	if err != nil {
		return PubDate{}, err
	}
	return NewPubDate(t), nil
}

func (d PubDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(PubDateLayout)
}

func (d PubDate) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *PubDate) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into PubDate", src)
	}
	if s == "" {
		*d = PubDate{}
		return nil
	}
	parsed, err := ParsePubDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (PubDate) GormDataType() string { return "text" }

// GUIDWindow is the ordered list of recently seen item GUIDs, oldest first.
type GUIDWindow []string

func (w GUIDWindow) Contains(guid string) bool {
	for _, g := range w {
		if g == guid {
			return true
		}
	}
	return false
}

// Bound evicts from the front until at most max GUIDs remain.
func (w GUIDWindow) Bound(max int) GUIDWindow {
	if max < 0 {
		max = 0
	}
	if len(w) <= max {
		return w
	}
	return w[len(w)-max:]
}

func (w GUIDWindow) Value() (driver.Value, error) {
	if w == nil {
		w = GUIDWindow{}
	}
	b, err := json.Marshal([]string(w))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (w *GUIDWindow) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*w = GUIDWindow{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("cannot scan %T into GUIDWindow", src)
	}
	out := GUIDWindow{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return err
		}
	}
	*w = out
	return nil
}

func (GUIDWindow) GormDataType() string { return "text" }

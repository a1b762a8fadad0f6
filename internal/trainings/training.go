package trainings

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// PageSize is the fixed number of trainings returned by a sorted fetch.
	PageSize = 5

	SortByName = "name"
	SortByDate = "date"
	OrderAsc   = "asc"
	OrderDesc  = "desc"

	DateLayout = "2006-01-02"
)

// Date is a calendar day, serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("date must be in %s format: %w", DateLayout, err)
	}
	*d = parsed
	return nil
}

// SetItem is one set as sent by clients. SetID is nil for sets not stored yet.
type SetItem struct {
	SetID        *int    `json:"set_id,omitempty" validate:"omitempty,gt=0,lte=2147483647"`
	ExerciseName string  `json:"exercise_name" validate:"required"`
	Repetitions  int     `json:"repetitions" validate:"gt=0,lte=2147483647"`
	Weight       float64 `json:"weight" validate:"gt=0"`
}

type Training struct {
	ID   int    `json:"training_id"`
	Name string `json:"training_name"`
	Date Date   `json:"date"`
}

// Details is a training together with its sets, ordered by set id.
type Details struct {
	Name string    `json:"name"`
	Date Date      `json:"date"`
	Sets []SetItem `json:"sets"`
}

type CreateParams struct {
	UserID int       `json:"user_id" validate:"gt=0,lte=2147483647"`
	Name   string    `json:"training_name" validate:"required"`
	Date   Date      `json:"date" validate:"required"`
	Sets   []SetItem `json:"sets" validate:"dive"`
}

type FetchSortedParams struct {
	UserID int
	SortBy string
	Order  string
	Offset int
}

// setRow is a stored set, before its exercise is resolved to a name.
type setRow struct {
	ID          int
	ExerciseID  int
	Repetitions int
	Weight      float64
}

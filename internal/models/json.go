package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Календарные даты в JSON передаются как YYYY-MM-DD, без времени и зоны.

func parseDateField(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func formatDateField(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

type bookingAlias Booking

type bookingJSON struct {
	*bookingAlias
	Date string `json:"date"`
}

func (b Booking) MarshalJSON() ([]byte, error) {
	alias := bookingAlias(b)
	return json.Marshal(bookingJSON{bookingAlias: &alias, Date: formatDateField(b.Date)})
}

func (b *Booking) UnmarshalJSON(data []byte) error {
	aux := bookingJSON{bookingAlias: (*bookingAlias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d, err := parseDateField("date", aux.Date)
	if err != nil {
		return err
	}
	b.Date = d
	return nil
}

type blockAlias ScheduleBlock

type blockJSON struct {
	*blockAlias
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (b ScheduleBlock) MarshalJSON() ([]byte, error) {
	alias := blockAlias(b)
	return json.Marshal(blockJSON{
		blockAlias: &alias,
		StartDate:  formatDateField(b.StartDate),
		EndDate:    formatDateField(b.EndDate),
	})
}

func (b *ScheduleBlock) UnmarshalJSON(data []byte) error {
	aux := blockJSON{blockAlias: (*blockAlias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	start, err := parseDateField("start_date", aux.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDateField("end_date", aux.EndDate)
	if err != nil {
		return err
	}
	b.StartDate, b.EndDate = start, end
	return nil
}

package domain

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the format of date_submitted and date_repaired.
const TimestampLayout = "2006-01-02 15:04"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "Pending"
	TicketStatusRepaired TicketStatus = "Repaired"
	TicketStatusCanceled TicketStatus = "Canceled"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusRepaired, TicketStatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether s is Repaired or Canceled.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusRepaired || s == TicketStatusCanceled
}

// UnknownSubmitter is stored when no submitter name was given.
const UnknownSubmitter = "Unknown"

// Ticket is a device repair record. Field order and JSON keys match the data file.
type Ticket struct {
	ID            int          `json:"id"`
	Device        string       `json:"device"`
	Serial        string       `json:"serial"`
	Issue         string       `json:"issue"`
	Submitted     string       `json:"submitted"`
	Contact       string       `json:"contact"`
	Status        TicketStatus `json:"status"`
	DateSubmitted string       `json:"date_submitted"`
	DateRepaired  string       `json:"date_repaired"`
}

// Sortable ticket fields, in display order.
const (
	FieldID            = "id"
	FieldDevice        = "device"
	FieldSerial        = "serial"
	FieldIssue         = "issue"
	FieldSubmitted     = "submitted"
	FieldContact       = "contact"
	FieldStatus        = "status"
	FieldDateRepaired  = "date_repaired"
	FieldDateSubmitted = "date_submitted"
)

// Fields lists every ticket field name.
var Fields = []string{
	FieldID, FieldDevice, FieldSerial, FieldIssue, FieldSubmitted,
	FieldContact, FieldStatus, FieldDateRepaired, FieldDateSubmitted,
}

// FieldValue returns the stringified value of the named field.
func (t Ticket) FieldValue(field string) (string, bool) {
	switch field {
	case FieldID:
		return strconv.Itoa(t.ID), true
	case FieldDevice:
		return t.Device, true
	case FieldSerial:
		return t.Serial, true
	case FieldIssue:
		return t.Issue, true
	case FieldSubmitted:
		return t.Submitted, true
	case FieldContact:
		return t.Contact, true
	case FieldStatus:
		return string(t.Status), true
	case FieldDateRepaired:
		return t.DateRepaired, true
	case FieldDateSubmitted:
		return t.DateSubmitted, true
	}
	return "", false
}

// Matches reports whether query (already lowercased) occurs in device, serial,
// issue or submitted. An empty query matches everything.
func (t Ticket) Matches(query string) bool {
	if query == "" {
		return true
	}
	for _, v := range []string{t.Device, t.Serial, t.Issue, t.Submitted} {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

// RepairedAt parses DateRepaired in the given location.
func (t Ticket) RepairedAt(loc *time.Location) (time.Time, bool) {
	return ParseTimestamp(t.DateRepaired, loc)
}

// FormatTimestamp renders ts using TimestampLayout.
func FormatTimestamp(ts time.Time) string {
	return ts.Format(TimestampLayout)
}

// ParseTimestamp parses a TimestampLayout value; blank or malformed values report false.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	ts, err := time.ParseInLocation(TimestampLayout, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

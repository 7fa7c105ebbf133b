package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ScanStatus is the outcome recorded for a scanned code.
type ScanStatus string

const (
	ScanSuccess   ScanStatus = "success"
	ScanDuplicate ScanStatus = "duplicate"
	ScanError     ScanStatus = "error"
)

// ScanRecord is one entry of an event's recent-scan history.
type ScanRecord struct {
	ID           string     `json:"id"`
	EventID      string     `json:"eventId"`
	AttendeeID   string     `json:"attendeeId"`
	AttendeeName string     `json:"attendeeName"`
	Status       ScanStatus `json:"status"`
	Message      string     `json:"message"`
	Timestamp    time.Time  `json:"timestamp"`
}

// ScanPayload is the content of an attendee QR code.
type ScanPayload struct {
	AttendeeID string    `json:"attendeeId"`
	EventID    string    `json:"eventId"`
	Timestamp  time.Time `json:"timestamp"`
}

// ParseScanPayload decodes QR text. JSON objects are decoded as a
// ScanPayload; anything else is taken as a bare attendee id.
func ParseScanPayload(raw string) (ScanPayload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ScanPayload{}, invalid("payload", "is empty")
	}
	if !strings.HasPrefix(raw, "{") {
		return ScanPayload{AttendeeID: raw}, nil
	}
	var p ScanPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return ScanPayload{}, invalid("payload", "is not a valid attendee code")
	}
	p.AttendeeID = strings.TrimSpace(p.AttendeeID)
	p.EventID = strings.TrimSpace(p.EventID)
	if p.AttendeeID == "" {
		return ScanPayload{}, invalid("attendeeId", "is required")
	}
	return p, nil
}

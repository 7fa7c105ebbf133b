package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/google/uuid"
)

// ErrWrongEvent is returned when a scanned code belongs to another event.
var ErrWrongEvent = errors.New("code belongs to a different event")

// ScanCheckIn checks in the attendee named by a scanned code at eventID and
// records the outcome in the event's scan history. The record is returned
// for failed scans too, alongside the error. An unknown event fails without
// a record so no history is kept for it.
func (s *EventService) ScanCheckIn(ctx context.Context, eventID, raw string) (*model.ScanRecord, error) {
	if err := required("eventId", eventID); err != nil {
		return nil, err
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", eventID, err)
		}
		return nil, wrap("get event", err)
	}
	rec := &model.ScanRecord{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Timestamp: s.now(),
	}

	result, err := s.scan(ctx, eventID, raw, rec)
	switch {
	case err != nil:
		rec.Status = model.ScanError
		rec.Message = scanMessage(err)
	case result.AlreadyCheckedIn:
		rec.Status = model.ScanDuplicate
		rec.AttendeeName = result.Attendee.Name
		rec.Message = fmt.Sprintf("%s is already checked in!", result.Attendee.Name)
	default:
		rec.Status = model.ScanSuccess
		rec.AttendeeName = result.Attendee.Name
		rec.Message = fmt.Sprintf("%s checked in successfully!", result.Attendee.Name)
	}

	if appendErr := s.scans.Append(ctx, *rec); appendErr != nil {
		s.logger.Warn("record scan", "event_id", eventID, "error", appendErr)
	}
	return rec, err
}

func (s *EventService) scan(ctx context.Context, eventID, raw string, rec *model.ScanRecord) (*model.CheckInResult, error) {
	payload, err := model.ParseScanPayload(raw)
	if err != nil {
		return nil, err
	}
	rec.AttendeeID = payload.AttendeeID
	if payload.EventID != "" && payload.EventID != eventID {
		return nil, ErrWrongEvent
	}
	return s.CheckInAttendee(ctx, payload.AttendeeID, eventID)
}

func scanMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "Attendee not found!"
	case errors.Is(err, ErrWrongEvent):
		return "This code is for a different event."
	case errors.Is(err, model.ErrValidation):
		return "Invalid code: " + err.Error()
	default:
		return "Check-in failed, please try again."
	}
}

// RecentScans returns the event's latest scan results, newest first.
func (s *EventService) RecentScans(ctx context.Context, eventID string) ([]model.ScanRecord, error) {
	if err := required("eventId", eventID); err != nil {
		return nil, err
	}
	records, err := s.scans.Recent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return records, nil
}

// ClearScans drops the event's scan history.
func (s *EventService) ClearScans(ctx context.Context, eventID string) error {
	if err := required("eventId", eventID); err != nil {
		return err
	}
	if err := s.scans.Clear(ctx, eventID); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return nil
}

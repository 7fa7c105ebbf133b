package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/filter"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

var exportHeader = []string{"name", "email", "phone", "company", "category", "checkedIn", "checkedInAt", "notes"}

// ImportAttendees registers one attendee per CSV row. The first row is a
// header naming the columns; unknown columns are ignored. Each row is its
// own registration, so a bad row does not undo the good ones. A missing
// event or an unavailable store aborts the import.
func (s *EventService) ImportAttendees(ctx context.Context, eventID string, r io.Reader) (*model.ImportResult, error) {
	if err := required("eventId", eventID); err != nil {
		return nil, err
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.ValidationError{Field: "csv", Reason: "is empty"}
	}
	if err != nil {
		return nil, &model.ValidationError{Field: "csv", Reason: "header is unreadable: " + err.Error()}
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, &model.ValidationError{Field: "csv", Reason: "header must include a name column"}
	}

	result := &model.ImportResult{Errors: []model.ImportError{}}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, model.ImportError{Row: row, Message: err.Error()})
			continue
		}

		field := func(col string) string {
			if i, ok := index[col]; ok && i < len(record) {
				return record[i]
			}
			return ""
		}
		req := model.CreateAttendeeRequest{
			EventID:  eventID,
			Name:     field("name"),
			Email:    field("email"),
			Phone:    field("phone"),
			Company:  field("company"),
			Category: model.AttendeeCategory(strings.ToLower(strings.TrimSpace(field("category")))),
			Notes:    field("notes"),
		}
		if strings.TrimSpace(req.Name) == "" {
			result.Errors = append(result.Errors, model.ImportError{Row: row, Message: "name is required"})
			continue
		}

		if _, err := s.CreateAttendee(ctx, req); err != nil {
			if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrUnavailable) {
				return result, err
			}
			result.Errors = append(result.Errors, model.ImportError{Row: row, Message: err.Error()})
			continue
		}
		result.Created++
	}

	s.logger.Info("attendees imported",
		"event_id", eventID, "created", result.Created, "rejected", len(result.Errors))
	return result, nil
}

// ExportAttendees writes the event's attendees as CSV, newest first.
func (s *EventService) ExportAttendees(ctx context.Context, eventID string, w io.Writer) error {
	attendees, err := s.GetAttendees(ctx, eventID, filter.Attendees{})
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range attendees {
		checkedInAt := ""
		if a.CheckedInAt != nil {
			checkedInAt = a.CheckedInAt.Format(time.RFC3339)
		}
		record := []string{
			a.Name, a.Email, a.Phone, a.Company, string(a.Category),
			strconv.FormatBool(a.CheckedIn), checkedInAt, a.Notes,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}


package model

import (
	"errors"
	"strings"
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Is lets callers test for ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NewEvent validates req and builds the event a repository should persist.
// The ID and timestamps are left for the store to assign.
func NewEvent(req CreateEventRequest, creatorUID string) (*Event, error) {
	creatorUID = strings.TrimSpace(creatorUID)
	if creatorUID == "" {
		return nil, invalid("creatorUid", "is required")
	}
	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, invalid("status", "must be one of draft, published, active, completed, cancelled")
	}
	if req.MaxAttendees < 0 {
		return nil, invalid("maxAttendees", "cannot be negative")
	}
	return &Event{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Location:     strings.TrimSpace(req.Location),
		Category:     strings.TrimSpace(req.Category),
		Date:         req.Date.UTC(),
		Status:       status,
		MaxAttendees: req.MaxAttendees,
		CreatorUID:   creatorUID,
	}, nil
}

// Validate checks the fields a patch would set.
func (p EventPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", "must be one of draft, published, active, completed, cancelled")
	}
	if p.MaxAttendees != nil && *p.MaxAttendees < 0 {
		return invalid("maxAttendees", "cannot be negative")
	}
	return nil
}

// Apply merges the patch into e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Location != nil {
		e.Location = strings.TrimSpace(*p.Location)
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	if p.Date != nil {
		e.Date = p.Date.UTC()
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.MaxAttendees != nil {
		e.MaxAttendees = *p.MaxAttendees
	}
}

// NewAttendee validates req and builds an attendee that is not checked in.
func NewAttendee(req CreateAttendeeRequest) (*Attendee, error) {
	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		return nil, invalid("eventId", "is required")
	}
	category := req.Category
	if category == "" {
		category = CategoryGeneral
	}
	if !category.Valid() {
		return nil, invalid("category", "must be one of general, vip, speaker, sponsor, press, staff")
	}
	return &Attendee{
		EventID:  eventID,
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(strings.ToLower(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		Company:  strings.TrimSpace(req.Company),
		Category: category,
		Notes:    strings.TrimSpace(req.Notes),
	}, nil
}

// Validate checks the fields a patch would set.
func (p AttendeePatch) Validate() error {
	if p.Category != nil && !p.Category.Valid() {
		return invalid("category", "must be one of general, vip, speaker, sponsor, press, staff")
	}
	return nil
}

// Apply merges the patch into a.
func (p AttendeePatch) Apply(a *Attendee) {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		a.Email = strings.TrimSpace(strings.ToLower(*p.Email))
	}
	if p.Phone != nil {
		a.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Company != nil {
		a.Company = strings.TrimSpace(*p.Company)
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Notes != nil {
		a.Notes = strings.TrimSpace(*p.Notes)
	}
}

// Default profile values for users seen for the first time.
const (
	DefaultDisplayName = "User"
	DefaultRole        = "client"
)

// NewProfile builds the first profile for a signed-in identity.
func NewProfile(id Identity) (*UserProfile, error) {
	uid := strings.TrimSpace(id.UID)
	if uid == "" {
		return nil, invalid("uid", "is required")
	}
	name := strings.TrimSpace(id.DisplayName)
	if name == "" {
		name = DefaultDisplayName
	}
	return &UserProfile{
		UID:         uid,
		DisplayName: name,
		Email:       strings.TrimSpace(id.Email),
		Role:        DefaultRole,
	}, nil
}

// Apply merges the patch into u.
func (p ProfilePatch) Apply(u *UserProfile) {
	if p.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*p.DisplayName)
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.Role != nil {
		u.Role = strings.TrimSpace(*p.Role)
	}
}

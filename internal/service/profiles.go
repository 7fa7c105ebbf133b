package service

import (
	"context"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

// EnsureProfile returns the caller's profile, creating it on first sight.
func (s *EventService) EnsureProfile(ctx context.Context, id model.Identity) (*model.UserProfile, error) {
	profile, err := model.NewProfile(id)
	if err != nil {
		return nil, err
	}
	stored, err := s.users.Ensure(ctx, profile)
	if err != nil {
		return nil, wrap("ensure profile", err)
	}
	return stored, nil
}

// GetProfile returns a stored profile.
func (s *EventService) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	if err := required("uid", uid); err != nil {
		return nil, err
	}
	profile, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, wrap("get profile", err)
	}
	return profile, nil
}

// UpdateProfile edits a stored profile.
func (s *EventService) UpdateProfile(ctx context.Context, uid string, patch model.ProfilePatch) (*model.UserProfile, error) {
	if err := required("uid", uid); err != nil {
		return nil, err
	}
	profile, err := s.users.Update(ctx, uid, patch)
	if err != nil {
		return nil, wrap("update profile", err)
	}
	return profile, nil
}

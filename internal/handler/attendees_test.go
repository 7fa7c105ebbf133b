package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository/memstore"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outageAttendees accepts a fixed number of registrations and then reports
// the store as unavailable.
type outageAttendees struct {
	*memstore.AttendeeRepository
	remaining int
}

func (o *outageAttendees) Create(ctx context.Context, a *model.Attendee) error {
	if o.remaining == 0 {
		return fmt.Errorf("%w: connection reset", repository.ErrUnavailable)
	}
	o.remaining--
	return o.AttendeeRepository.Create(ctx, a)
}

func TestImportReportsPartialResultOnOutage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	svc := service.NewEventService(service.Deps{
		Events:    store.Events(),
		Attendees: &outageAttendees{AttendeeRepository: store.Attendees(), remaining: 2},
		Users:     store.Users(),
		Logger:    logger,
	})
	h := NewRouter(NewEventHandler(svc, logger), logger, "")
	e := createEvent(t, h, "Launch")

	rec := do(t, h, http.MethodPost, "/events/"+e.ID+"/attendees/import", "name\nA\nB\nC\nD\n")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	body := decode[struct {
		Error string              `json:"error"`
		Data  *model.ImportResult `json:"data"`
	}](t, rec)
	assert.Equal(t, "service temporarily unavailable, please retry", body.Error)
	require.NotNil(t, body.Data)
	assert.Equal(t, 2, body.Data.Created)

	rec = do(t, h, http.MethodGet, "/events/"+e.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[model.Event](t, rec).TotalAttendees)
}

func TestImportMissingEvent(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/events/missing/attendees/import", "name\nA\n")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"event not found","data":{"created":0,"errors":[]}}`, rec.Body.String())
}

package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository/memstore"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUID = "organizer-1"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	svc := service.NewEventService(service.Deps{
		Events:    store.Events(),
		Attendees: store.Attendees(),
		Users:     store.Users(),
		Logger:    logger,
	})
	return NewRouter(NewEventHandler(svc, logger), logger, "")
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderUserID, testUID)
	req.Header.Set(HeaderUserName, "Olga Organizer")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func createEvent(t *testing.T, h http.Handler, title string) model.Event {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/events", `{"title":"`+title+`","location":"Hall A"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[envelope[model.Event]](t, rec).Data
}

func createAttendee(t *testing.T, h http.Handler, eventID, name string) model.Attendee {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/events/"+eventID+"/attendees", `{"name":"`+name+`","email":"x@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[envelope[model.Attendee]](t, rec).Data
}

func TestHealthCheck(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateEventFlow(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/events", `{"title":"Launch"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[envelope[model.Event]](t, rec)
	assert.Equal(t, "Event created successfully!", created.Message)
	assert.Equal(t, testUID, created.Data.CreatorUID)
	assert.Equal(t, model.StatusDraft, created.Data.Status)

	rec = do(t, h, http.MethodGet, "/events/"+created.Data.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Launch", decode[model.Event](t, rec).Title)

	rec = do(t, h, http.MethodPatch, "/events/"+created.Data.ID, `{"status":"active"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusActive, decode[envelope[model.Event]](t, rec).Data.Status)

	rec = do(t, h, http.MethodGet, "/events?mine=true&status=active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Event](t, rec), 1)
}

func TestEventErrors(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/events/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPatch, "/events/missing", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/events", `{"title":"x","bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/events", `{"title":"x","status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestCreateEventWithoutIdentity(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"title":"Launch"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckInFlow(t *testing.T) {
	h := newTestRouter(t)
	e := createEvent(t, h, "Launch")
	a := createAttendee(t, h, e.ID, "John Doe")

	path := "/events/" + e.ID + "/attendees/" + a.ID + "/check-in"
	rec := do(t, h, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[envelope[model.CheckInResult]](t, rec)
	assert.Equal(t, "John Doe checked in successfully!", first.Message)
	assert.True(t, first.Data.Attendee.CheckedIn)

	rec = do(t, h, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[envelope[model.CheckInResult]](t, rec)
	assert.Equal(t, "John Doe is already checked in!", second.Message)
	assert.True(t, second.Data.AlreadyCheckedIn)

	rec = do(t, h, http.MethodGet, "/events/"+e.ID, "")
	got := decode[model.Event](t, rec)
	assert.Equal(t, 1, got.TotalAttendees)
	assert.Equal(t, 1, got.CheckedInCount)

	rec = do(t, h, http.MethodGet, "/events/"+e.ID+"/attendees?status=checked-in", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Attendee](t, rec), 1)

	rec = do(t, h, http.MethodPost, "/events/"+e.ID+"/attendees/missing/check-in", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAttendeeForMissingEvent(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/events/missing/attendees", `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"event not found"}`, rec.Body.String())
}

func TestDeleteFlows(t *testing.T) {
	h := newTestRouter(t)
	e := createEvent(t, h, "Launch")
	a := createAttendee(t, h, e.ID, "Ann")
	createAttendee(t, h, e.ID, "Bob")

	rec := do(t, h, http.MethodDelete, "/attendees/"+a.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ann removed successfully!", decode[envelope[model.Attendee]](t, rec).Message)

	rec = do(t, h, http.MethodGet, "/events/"+e.ID, "")
	assert.Equal(t, 1, decode[model.Event](t, rec).TotalAttendees)

	rec = do(t, h, http.MethodDelete, "/events/"+e.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Event deleted successfully!", decode[envelope[any]](t, rec).Message)

	rec = do(t, h, http.MethodGet, "/events/"+e.ID+"/attendees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Attendee](t, rec))

	rec = do(t, h, http.MethodDelete, "/events/"+e.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanEndpoint(t *testing.T) {
	h := newTestRouter(t)
	e := createEvent(t, h, "Launch")
	a := createAttendee(t, h, e.ID, "Ann")

	rec := do(t, h, http.MethodPost, "/events/"+e.ID+"/scans", `{"payload":"`+a.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ScanSuccess, decode[model.ScanRecord](t, rec).Status)

	rec = do(t, h, http.MethodPost, "/events/"+e.ID+"/scans", `{"payload":"nobody"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Attendee not found!", decode[model.ScanRecord](t, rec).Message)

	rec = do(t, h, http.MethodGet, "/events/"+e.ID+"/scans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.ScanRecord](t, rec), 2)

	rec = do(t, h, http.MethodDelete, "/events/"+e.ID+"/scans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/events/"+e.ID+"/scans", "")
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, h, http.MethodPost, "/events/missing/scans", `{"payload":"`+a.ID+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"event not found"}`, rec.Body.String())
}

func TestImportExport(t *testing.T) {
	h := newTestRouter(t)
	e := createEvent(t, h, "Launch")

	rec := do(t, h, http.MethodPost, "/events/"+e.ID+"/attendees/import", "name,email\nAnn,ann@example.com\nBob,bob@example.com\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2 attendees imported successfully!", decode[envelope[model.ImportResult]](t, rec).Message)

	rec = do(t, h, http.MethodGet, "/events/"+e.ID+"/attendees/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)

	rec = do(t, h, http.MethodGet, "/events/missing/attendees/export", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsAndDashboard(t *testing.T) {
	h := newTestRouter(t)
	e := createEvent(t, h, "Launch")
	a := createAttendee(t, h, e.ID, "Ann")
	createAttendee(t, h, e.ID, "Bob")
	do(t, h, http.MethodPost, "/events/"+e.ID+"/attendees/"+a.ID+"/check-in", "")

	rec := do(t, h, http.MethodGet, "/events/"+e.ID+"/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[model.EventStats](t, rec)
	assert.Equal(t, 50.0, stats.AttendanceRate)
	assert.Equal(t, 1, stats.PendingAttendees)

	rec = do(t, h, http.MethodGet, "/dashboard?mine=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[model.Dashboard](t, rec)
	assert.Equal(t, 1, d.TotalEvents)
	assert.Equal(t, 2, d.TotalAttendees)

	rec = do(t, h, http.MethodPost, "/events/"+e.ID+"/reconcile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[envelope[model.Event]](t, rec).Data.CheckedInCount)
}

func TestProfileEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[model.UserProfile](t, rec)
	assert.Equal(t, testUID, p.UID)
	assert.Equal(t, "Olga Organizer", p.DisplayName)

	rec = do(t, h, http.MethodPatch, "/me", `{"displayName":"Olga"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Olga", decode[envelope[model.UserProfile]](t, rec).Data.DisplayName)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodOptions, "/events", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// readSnapshot reads SSE lines until the next data frame.
func readSnapshot[T any](t *testing.T, r *bufio.Reader) struct {
	Seq   uint64 `json:"seq"`
	Items []T    `json:"items"`
} {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var snap struct {
				Seq   uint64 `json:"seq"`
				Items []T    `json:"items"`
			}
			require.NoError(t, json.Unmarshal([]byte(data), &snap))
			return snap
		}
	}
}

func TestStreamAttendees(t *testing.T) {
	h := newTestRouter(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	e := createEvent(t, h, "Launch")
	a := createAttendee(t, h, e.ID, "Ann")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events/"+e.ID+"/attendees/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := bufio.NewReader(resp.Body)
	first := readSnapshot[model.Attendee](t, body)
	require.Len(t, first.Items, 1)
	assert.False(t, first.Items[0].CheckedIn)

	do(t, h, http.MethodPost, "/events/"+e.ID+"/attendees/"+a.ID+"/check-in", "")

	next := readSnapshot[model.Attendee](t, body)
	assert.Greater(t, next.Seq, first.Seq)
	require.Len(t, next.Items, 1)
	assert.True(t, next.Items[0].CheckedIn)
}

package calendar

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"booking-service/internal/models"
)

func testMeeting() models.Meeting {
	return models.Meeting{
		ID:              "7f1c2a9e-3b4d-4e5f-8a6b-0c1d2e3f4a5b",
		AttendeeType:    "both",
		AttendeeName:    "Ada Lovelace",
		AttendeeEmail:   "ada@example.com",
		ScheduledStart:  time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Timezone:        "America/New_York",
		CreatedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestToGoogleEvent(t *testing.T) {
	m := testMeeting()
	ev := toGoogleEvent(m)

	if ev.Id != "7f1c2a9e3b4d4e5f8a6b0c1d2e3f4a5b" {
		t.Errorf("expected event id derived from the meeting id, got %q", ev.Id)
	}
	if ev.Start.DateTime != "2025-06-10T13:00:00Z" || ev.End.DateTime != "2025-06-10T13:30:00Z" {
		t.Errorf("expected UTC RFC3339 bounds, got %s to %s", ev.Start.DateTime, ev.End.DateTime)
	}
	if ev.Start.TimeZone != "America/New_York" || ev.End.TimeZone != "America/New_York" {
		t.Errorf("expected booking timezone, got %s", ev.Start.TimeZone)
	}
	if len(ev.Attendees) != 1 || ev.Attendees[0].Email != "ada@example.com" || ev.Attendees[0].DisplayName != "Ada Lovelace" {
		t.Errorf("unexpected attendees %+v", ev.Attendees)
	}
	req := ev.ConferenceData.CreateRequest
	if req.RequestId != m.ID || req.ConferenceSolutionKey.Type != "hangoutsMeet" {
		t.Errorf("expected a Meet request keyed by the meeting id, got %+v", req)
	}

	for _, tz := range []string{"", "Nowhere/Land"} {
		m.Timezone = tz
		if got := toGoogleEvent(m).Start.TimeZone; got != "UTC" {
			t.Errorf("timezone %q: expected UTC fallback, got %s", tz, got)
		}
	}
}

func TestJoinLink(t *testing.T) {
	tests := []struct {
		name string
		ev   *gcal.Event
		want string
	}{
		{"hangout link", &gcal.Event{HangoutLink: "https://meet.google.com/abc"}, "https://meet.google.com/abc"},
		{"video entry point", &gcal.Event{ConferenceData: &gcal.ConferenceData{EntryPoints: []*gcal.EntryPoint{
			{EntryPointType: "phone", Uri: "tel:+1-555-0100"},
			{EntryPointType: "video", Uri: "https://meet.google.com/def"},
		}}}, "https://meet.google.com/def"},
		{"no conference", &gcal.Event{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinLink(tt.ev); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// fakeGoogle serves the two Calendar API calls the adapter makes. Inserting an id
// that already exists answers 409 like the real API.
type fakeGoogle struct {
	mu      sync.Mutex
	events  map[string]*gcal.Event
	inserts int
	queries []url.Values
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	const prefix = "/calendars/primary/events"
	switch {
	case r.Method == http.MethodPost && r.URL.Path == prefix:
		f.inserts++
		f.queries = append(f.queries, r.URL.Query())
		var ev gcal.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, ok := f.events[ev.Id]; ok {
			w.WriteHeader(http.StatusConflict)
			io.WriteString(w, `{"error":{"code":409,"message":"The requested identifier already exists."}}`)
			return
		}
		ev.ConferenceData = &gcal.ConferenceData{EntryPoints: []*gcal.EntryPoint{
			{EntryPointType: "video", Uri: "https://meet.google.com/" + ev.Id},
		}}
		f.events[ev.Id] = &ev
		json.NewEncoder(w).Encode(&ev)
	case r.Method == http.MethodGet && len(r.URL.Path) > len(prefix)+1:
		ev, ok := f.events[r.URL.Path[len(prefix)+1:]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":404,"message":"Not Found"}}`)
			return
		}
		json.NewEncoder(w).Encode(ev)
	default:
		http.NotFound(w, r)
	}
}

func newFakeGoogle(t *testing.T) (*Google, *fakeGoogle) {
	t.Helper()
	fake := &fakeGoogle{events: map[string]*gcal.Event{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gcal.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Google{service: svc, calendarID: "primary", logger: logger}, fake
}

func TestGoogleCreateEvent(t *testing.T) {
	g, fake := newFakeGoogle(t)
	m := testMeeting()

	ev, err := g.CreateEvent(context.Background(), m)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ExternalEventID != "7f1c2a9e3b4d4e5f8a6b0c1d2e3f4a5b" {
		t.Errorf("unexpected event id %q", ev.ExternalEventID)
	}
	if ev.JoinLink != "https://meet.google.com/7f1c2a9e3b4d4e5f8a6b0c1d2e3f4a5b" {
		t.Errorf("expected the video entry point link, got %q", ev.JoinLink)
	}
	if len(fake.queries) != 1 {
		t.Fatalf("expected one insert, got %d", len(fake.queries))
	}
	q := fake.queries[0]
	if q.Get("conferenceDataVersion") != "1" || q.Get("sendUpdates") != "all" {
		t.Errorf("expected conference data and attendee updates requested, got %v", q)
	}
}

func TestGoogleCreateEventTwiceReturnsExistingEvent(t *testing.T) {
	g, fake := newFakeGoogle(t)
	m := testMeeting()

	first, err := g.CreateEvent(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.CreateEvent(context.Background(), m)
	if err != nil {
		t.Fatalf("repeated CreateEvent: %v", err)
	}
	if second != first {
		t.Errorf("expected the existing event %+v, got %+v", first, second)
	}
	if len(fake.events) != 1 || fake.inserts != 2 {
		t.Errorf("expected one stored event after two inserts, got %d events", len(fake.events))
	}
}

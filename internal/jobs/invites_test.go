package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"

	"booking-service/internal/models"
)

type fakeRetrier struct {
	booking models.Booking
	err     error
	calls   []string
}

func (f *fakeRetrier) RetryCalendarEvent(ctx context.Context, id string) (models.Booking, error) {
	f.calls = append(f.calls, id)
	return f.booking, f.err
}

func TestInviteHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	task, err := NewInviteTask("m1")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		retrier *fakeRetrier
		wantErr bool
	}{
		{"created", &fakeRetrier{booking: models.Booking{Meeting: models.Meeting{ID: "m1", ExternalEventID: "ev"}}}, false},
		{"still pending", &fakeRetrier{booking: models.Booking{CalendarPending: true}}, true},
		{"cancelled meanwhile", &fakeRetrier{err: models.ErrInvalidTransition}, false},
		{"gone", &fakeRetrier{err: models.ErrNotFound}, false},
		{"store down", &fakeRetrier{err: errors.New("connection reset")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InviteHandler(tt.retrier, logger)(context.Background(), task)
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
			if len(tt.retrier.calls) != 1 || tt.retrier.calls[0] != "m1" {
				t.Errorf("unexpected calls %v", tt.retrier.calls)
			}
		})
	}
}

func TestInviteHandlerSkipsBadPayload(t *testing.T) {
	r := &fakeRetrier{}
	err := InviteHandler(r, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		context.Background(), asynq.NewTask(TypeCreateCalendarEvent, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("expected SkipRetry, got %v", err)
	}
	if len(r.calls) != 0 {
		t.Error("retrier must not be called for a bad payload")
	}
}

// Package jobs runs background work on a Redis-backed asynq queue. The only job
// today retries calendar invites that failed at booking time.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"booking-service/internal/models"
)

const TypeCreateCalendarEvent = "calendar:create_event"

var errInvitePending = errors.New("calendar invite still pending")

type invitePayload struct {
	MeetingID string `json:"meetingId"`
}

type QueueOptions struct {
	Delay    time.Duration
	MaxRetry int
}

// Queue enqueues invite retries. One task per meeting is kept at a time.
type Queue struct {
	client *asynq.Client
	opts   QueueOptions
}

func NewQueue(redisURL string, opts QueueOptions) (*Queue, error) {
	conn, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Minute
	}
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = 10
	}
	return &Queue{client: asynq.NewClient(conn), opts: opts}, nil
}

func (q *Queue) ScheduleInviteRetry(ctx context.Context, meetingID string) error {
	task, err := NewInviteTask(meetingID)
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.TaskID("invite:"+meetingID),
		asynq.ProcessIn(q.opts.Delay),
		asynq.MaxRetry(q.opts.MaxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue invite retry: %w", err)
	}
	return nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func NewInviteTask(meetingID string) (*asynq.Task, error) {
	payload, err := json.Marshal(invitePayload{MeetingID: meetingID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCreateCalendarEvent, payload), nil
}

// InviteRetrier is the part of booking.Service the worker needs.
type InviteRetrier interface {
	RetryCalendarEvent(ctx context.Context, id string) (models.Booking, error)
}

// InviteHandler processes TypeCreateCalendarEvent tasks. A task fails, and is
// retried by asynq, while the provider keeps failing. Meetings that were cancelled
// or removed in the meantime are dropped.
func InviteHandler(svc InviteRetrier, logger *slog.Logger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var p invitePayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil || p.MeetingID == "" {
			return fmt.Errorf("bad invite payload %q: %w", t.Payload(), asynq.SkipRetry)
		}

		b, err := svc.RetryCalendarEvent(ctx, p.MeetingID)
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidTransition) {
			logger.Info("Dropping invite retry", "meetingID", p.MeetingID, "reason", err)
			return nil
		}
		if err != nil {
			return err
		}
		if b.CalendarPending {
			return errInvitePending
		}
		logger.Info("Calendar invite created on retry", "meetingID", p.MeetingID, "eventID", b.ExternalEventID)
		return nil
	}
}

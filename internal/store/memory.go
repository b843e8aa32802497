package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"booking-service/internal/models"
)

type claimKey struct {
	individual string
	bucket     int64
}

// Memory is an in-process Store. It is safe for concurrent use; the check and the
// insert of Reserve run under one lock.
type Memory struct {
	opts Options

	mu       sync.Mutex
	meetings map[string]models.Meeting
	claims   map[claimKey]string
}

func NewMemory(opts Options) *Memory {
	return &Memory{
		opts:     opts.withDefaults(),
		meetings: map[string]models.Meeting{},
		claims:   map[claimKey]string{},
	}
}

func (s *Memory) Reserve(ctx context.Context, r models.Reservation) (models.Meeting, error) {
	claims, err := r.Claims()
	if err != nil {
		return models.Meeting{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Meeting{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reapLocked()
	for _, c := range claims {
		if _, taken := s.claims[keyOf(c)]; taken {
			return models.Meeting{}, fmt.Errorf("%w: %s at %s", models.ErrSlotConflict, c.Individual, c.Bucket.Format(time.RFC3339))
		}
	}

	now := s.opts.Clock.Now().UTC()
	m := models.Meeting{
		ID:              uuid.NewString(),
		AttendeeType:    r.AttendeeType,
		Individuals:     append([]string(nil), r.Individuals...),
		AttendeeName:    r.Lead.Name,
		AttendeeEmail:   r.Lead.Email,
		AttendeePhone:   r.Lead.Phone,
		ScheduledStart:  r.Start.UTC(),
		Timezone:        r.Timezone,
		DurationMinutes: r.DurationMinutes,
		Status:          models.StatusRequested,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.meetings[m.ID] = m
	for _, c := range claims {
		s.claims[keyOf(c)] = m.ID
	}
	return m, nil
}

func (s *Memory) Confirm(ctx context.Context, id string) (models.Meeting, error) {
	return s.transition(id, models.StatusConfirmed)
}

func (s *Memory) Cancel(ctx context.Context, id string) (models.Meeting, error) {
	return s.transition(id, models.StatusCancelled)
}

func (s *Memory) transition(id string, next models.Status) (models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, models.ErrNotFound
	}
	if !m.Status.CanTransition(next) {
		return models.Meeting{}, fmt.Errorf("%w: %s to %s", models.ErrInvalidTransition, m.Status, next)
	}
	m.Status = next
	m.UpdatedAt = s.opts.Clock.Now().UTC()
	s.meetings[id] = m
	if next.Terminal() {
		s.releaseLocked(id)
	}
	return m, nil
}

func (s *Memory) Get(ctx context.Context, id string) (models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, models.ErrNotFound
	}
	return m, nil
}

func (s *Memory) List(ctx context.Context, individuals []string, from, to time.Time) ([]models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Meeting
	for _, m := range s.meetings {
		if len(individuals) > 0 && !m.Involves(individuals) {
			continue
		}
		if !from.IsZero() && m.ScheduledStart.Before(from) {
			continue
		}
		if !to.IsZero() && !m.ScheduledStart.Before(to) {
			continue
		}
		out = append(out, m)
	}
	sortMeetings(out)
	return out, nil
}

func (s *Memory) FindByDateRange(ctx context.Context, individuals []string, from, to time.Time) ([]models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.opts.cutoff()
	var out []models.Meeting
	for _, m := range s.meetings {
		if blocking(m, cutoff) && m.Involves(individuals) && m.Overlaps(from, to) {
			out = append(out, m)
		}
	}
	sortMeetings(out)
	return out, nil
}

func (s *Memory) AttachEvent(ctx context.Context, id, eventID, joinLink string) (models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, models.ErrNotFound
	}
	if m.Status != models.StatusConfirmed {
		return models.Meeting{}, fmt.Errorf("%w: meeting is %s", models.ErrInvalidTransition, m.Status)
	}
	if m.ExternalEventID != "" {
		return m, ErrEventAttached
	}
	m.ExternalEventID = eventID
	m.ExternalJoinLink = joinLink
	m.UpdatedAt = s.opts.Clock.Now().UTC()
	s.meetings[id] = m
	return m, nil
}

func (s *Memory) ReapAbandoned(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reapLocked(), nil
}

func (s *Memory) Close() {}

func (s *Memory) reapLocked() int {
	cutoff := s.opts.cutoff()
	now := s.opts.Clock.Now().UTC()
	n := 0
	for id, m := range s.meetings {
		if m.Status == models.StatusRequested && m.CreatedAt.Before(cutoff) {
			m.Status = models.StatusFailed
			m.UpdatedAt = now
			s.meetings[id] = m
			s.releaseLocked(id)
			n++
		}
	}
	return n
}

func (s *Memory) releaseLocked(id string) {
	for k, owner := range s.claims {
		if owner == id {
			delete(s.claims, k)
		}
	}
}

func keyOf(c models.Claim) claimKey {
	return claimKey{individual: c.Individual, bucket: c.Bucket.Unix()}
}

func sortMeetings(ms []models.Meeting) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].ScheduledStart.Equal(ms[j].ScheduledStart) {
			return ms[i].ID < ms[j].ID
		}
		return ms[i].ScheduledStart.Before(ms[j].ScheduledStart)
	})
}

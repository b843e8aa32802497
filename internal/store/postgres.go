package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"booking-service/internal/models"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

const meetingColumns = `id, attendee_type, individuals, attendee_name, attendee_email, attendee_phone,
	scheduled_start, duration_minutes, timezone, status, external_event_id, external_join_link,
	created_at, updated_at`

type Postgres struct {
	db   *pgxpool.Pool
	opts Options
}

func NewPostgres(ctx context.Context, dbURL string, opts Options) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return &Postgres{db: pool, opts: opts.withDefaults()}, nil
}

func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Postgres) Close() { s.db.Close() }

func (s *Postgres) Reserve(ctx context.Context, r models.Reservation) (models.Meeting, error) {
	claims, err := r.Claims()
	if err != nil {
		return models.Meeting{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return models.Meeting{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.reapTx(ctx, tx); err != nil {
		return models.Meeting{}, err
	}

	now := s.opts.Clock.Now().UTC()
	id := uuid.New()
	insertQ := `INSERT INTO meetings
		(id, attendee_type, individuals, attendee_name, attendee_email, attendee_phone,
		 scheduled_start, duration_minutes, timezone, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'requested',$10,$10)
		RETURNING ` + meetingColumns
	m, err := scanMeeting(tx.QueryRow(ctx, insertQ,
		id, r.AttendeeType, r.Individuals, r.Lead.Name, r.Lead.Email, r.Lead.Phone,
		r.Start.UTC(), r.DurationMinutes, r.Timezone, now,
	))
	if err != nil {
		return models.Meeting{}, err
	}

	individuals := make([]string, len(claims))
	buckets := make([]time.Time, len(claims))
	for i, c := range claims {
		individuals[i] = c.Individual
		buckets[i] = c.Bucket
	}
	claimQ := `INSERT INTO meeting_claims (individual, bucket_start, meeting_id)
		SELECT unnest($1::text[]), unnest($2::timestamptz[]), $3`
	if _, err := tx.Exec(ctx, claimQ, individuals, buckets, id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Meeting{}, models.ErrSlotConflict
		}
		return models.Meeting{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Meeting{}, err
	}
	return m, nil
}

func (s *Postgres) Confirm(ctx context.Context, id string) (models.Meeting, error) {
	return s.transition(ctx, id, models.StatusConfirmed)
}

func (s *Postgres) Cancel(ctx context.Context, id string) (models.Meeting, error) {
	return s.transition(ctx, id, models.StatusCancelled)
}

func (s *Postgres) transition(ctx context.Context, id string, next models.Status) (models.Meeting, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return models.Meeting{}, models.ErrNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return models.Meeting{}, err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM meetings WHERE id=$1 FOR UPDATE`, uid).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Meeting{}, models.ErrNotFound
	}
	if err != nil {
		return models.Meeting{}, err
	}
	current := models.Status(status)
	if !current.CanTransition(next) {
		return models.Meeting{}, fmt.Errorf("%w: %s to %s", models.ErrInvalidTransition, current, next)
	}

	updateQ := `UPDATE meetings SET status=$1, updated_at=$2 WHERE id=$3 RETURNING ` + meetingColumns
	m, err := scanMeeting(tx.QueryRow(ctx, updateQ, string(next), s.opts.Clock.Now().UTC(), uid))
	if err != nil {
		return models.Meeting{}, err
	}
	if next.Terminal() {
		if _, err := tx.Exec(ctx, `DELETE FROM meeting_claims WHERE meeting_id=$1`, uid); err != nil {
			return models.Meeting{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Meeting{}, err
	}
	return m, nil
}

func (s *Postgres) Get(ctx context.Context, id string) (models.Meeting, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return models.Meeting{}, models.ErrNotFound
	}
	m, err := scanMeeting(s.db.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id=$1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Meeting{}, models.ErrNotFound
	}
	return m, err
}

func (s *Postgres) List(ctx context.Context, individuals []string, from, to time.Time) ([]models.Meeting, error) {
	q := `SELECT ` + meetingColumns + ` FROM meetings
		WHERE (cardinality($1::text[]) = 0 OR individuals && $1)
		  AND ($2::timestamptz IS NULL OR scheduled_start >= $2)
		  AND ($3::timestamptz IS NULL OR scheduled_start < $3)
		ORDER BY scheduled_start, id`
	if individuals == nil {
		individuals = []string{}
	}
	return s.query(ctx, q, individuals, nullTime(from), nullTime(to))
}

func (s *Postgres) FindByDateRange(ctx context.Context, individuals []string, from, to time.Time) ([]models.Meeting, error) {
	q := `SELECT ` + meetingColumns + ` FROM meetings
		WHERE individuals && $1
		  AND scheduled_start < $3
		  AND scheduled_start + make_interval(mins => duration_minutes) > $2
		  AND (status = 'confirmed' OR (status = 'requested' AND created_at >= $4))
		ORDER BY scheduled_start, id`
	return s.query(ctx, q, individuals, from.UTC(), to.UTC(), s.opts.cutoff())
}

func (s *Postgres) AttachEvent(ctx context.Context, id, eventID, joinLink string) (models.Meeting, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return models.Meeting{}, models.ErrNotFound
	}
	q := `UPDATE meetings SET external_event_id=$1, external_join_link=$2, updated_at=$3
		WHERE id=$4 AND status='confirmed' AND external_event_id=''
		RETURNING ` + meetingColumns
	m, err := scanMeeting(s.db.QueryRow(ctx, q, eventID, joinLink, s.opts.Clock.Now().UTC(), uid))
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return models.Meeting{}, getErr
		}
		if current.Status != models.StatusConfirmed {
			return models.Meeting{}, fmt.Errorf("%w: meeting is %s", models.ErrInvalidTransition, current.Status)
		}
		return current, ErrEventAttached
	}
	return m, err
}

func (s *Postgres) ReapAbandoned(ctx context.Context) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	n, err := s.reapTx(ctx, tx)
	if err != nil {
		return 0, err
	}
	return n, tx.Commit(ctx)
}

func (s *Postgres) reapTx(ctx context.Context, tx pgx.Tx) (int, error) {
	q := `WITH stale AS (
			UPDATE meetings SET status='failed', updated_at=$1
			WHERE status='requested' AND created_at < $2
			RETURNING id
		), released AS (
			DELETE FROM meeting_claims WHERE meeting_id IN (SELECT id FROM stale)
		)
		SELECT count(*) FROM stale`
	var n int
	if err := tx.QueryRow(ctx, q, s.opts.Clock.Now().UTC(), s.opts.cutoff()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to reap abandoned meetings: %w", err)
	}
	return n, nil
}

func (s *Postgres) query(ctx context.Context, q string, args ...any) ([]models.Meeting, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMeeting(row pgx.Row) (models.Meeting, error) {
	var (
		m      models.Meeting
		id     uuid.UUID
		status string
	)
	err := row.Scan(&id, &m.AttendeeType, &m.Individuals, &m.AttendeeName, &m.AttendeeEmail, &m.AttendeePhone,
		&m.ScheduledStart, &m.DurationMinutes, &m.Timezone, &status, &m.ExternalEventID, &m.ExternalJoinLink,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return models.Meeting{}, err
	}
	m.ID = id.String()
	m.Status = models.Status(status)
	m.ScheduledStart = m.ScheduledStart.UTC()
	return m, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

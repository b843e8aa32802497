package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
)

// Worker consumes the queue until its context ends.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewWorker(redisURL string, concurrency int, svc InviteRetrier, logger *slog.Logger) (*Worker, error) {
	conn, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(conn, asynq.Config{
		Concurrency: concurrency,
		Logger:      newSlogAdapter(logger),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCreateCalendarEvent, InviteHandler(svc, logger))
	return &Worker{srv: srv, mux: mux}, nil
}

func (w *Worker) Run(ctx context.Context) error {
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	<-ctx.Done()
	w.srv.Shutdown()
	return nil
}

// slogAdapter satisfies asynq.Logger. Fatal exits the process as the interface
// requires.
type slogAdapter struct {
	l    *slog.Logger
	exit func(int)
}

var _ asynq.Logger = slogAdapter{}

func newSlogAdapter(l *slog.Logger) slogAdapter {
	return slogAdapter{l: l, exit: os.Exit}
}

func (a slogAdapter) Debug(args ...interface{}) { a.l.Debug(fmt.Sprint(args...)) }
func (a slogAdapter) Info(args ...interface{})  { a.l.Info(fmt.Sprint(args...)) }
func (a slogAdapter) Warn(args ...interface{})  { a.l.Warn(fmt.Sprint(args...)) }
func (a slogAdapter) Error(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }

func (a slogAdapter) Fatal(args ...interface{}) {
	a.l.Error(fmt.Sprint(args...))
	a.exit(1)
}

package tasks

import (
	"context"
	"errors"
	"fmt"

	"clinic_queue/internal/metrics"
	"clinic_queue/internal/queue"
	"clinic_queue/internal/ws"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Planner runs periodic maintenance of the active queue.
type Planner struct {
	cron    *cron.Cron
	queues  *queue.Service
	metrics *metrics.QueueMetrics
	events  ws.Publisher
	log     zerolog.Logger
}

func NewPlanner(queues *queue.Service, m *metrics.QueueMetrics, events ws.Publisher, log zerolog.Logger) *Planner {
	return &Planner{
		cron:    cron.New(cron.WithSeconds()),
		queues:  queues,
		metrics: m,
		events:  events,
		log:     log.With().Str("component", "planner").Logger(),
	}
}

// Start schedules both jobs with six-field cron specs and starts the cron
// goroutine. An empty spec disables that job.
func (p *Planner) Start(normalizeSpec, gaugeSpec string) error {
	if normalizeSpec != "" {
		if _, err := p.cron.AddFunc(normalizeSpec, func() { p.NormalizeActiveQueue(context.Background()) }); err != nil {
			return fmt.Errorf("schedule normalize job: %w", err)
		}
	}
	if gaugeSpec != "" {
		if _, err := p.cron.AddFunc(gaugeSpec, func() { p.RefreshWaitingGauge(context.Background()) }); err != nil {
			return fmt.Errorf("schedule gauge job: %w", err)
		}
	}

	p.cron.Start()
	p.log.Info().Int("jobs", len(p.cron.Entries())).Msg("cron planner started")
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (p *Planner) Stop(ctx context.Context) {
	select {
	case <-p.cron.Stop().Done():
	case <-ctx.Done():
		p.log.Warn().Msg("cron jobs still running at shutdown")
	}
}

// RefreshWaitingGauge publishes the number of WAITING patients of the active
// queue. No queue means nothing to report.
func (p *Planner) RefreshWaitingGauge(ctx context.Context) {
	q, err := p.queues.FindActive(ctx)
	if errors.Is(err, queue.ErrQueueNotFound) {
		return
	}
	if err != nil {
		p.log.Error().Err(err).Msg("gauge refresh: find active queue")
		return
	}

	state, err := p.queues.ReadState(ctx, q.ID)
	if err != nil {
		p.log.Error().Err(err).Uint("queue_id", q.ID).Msg("gauge refresh: read state")
		return
	}
	p.metrics.SetWaiting(q.ID, state.RemainingWaitingCount)
}

// NormalizeActiveQueue closes position gaps, e.g. after rows were removed by
// hand, and tells connected UIs to refetch when anything moved.
func (p *Planner) NormalizeActiveQueue(ctx context.Context) {
	q, err := p.queues.FindActive(ctx)
	if errors.Is(err, queue.ErrQueueNotFound) {
		return
	}
	if err != nil {
		p.log.Error().Err(err).Msg("normalize: find active queue")
		return
	}

	moved, err := p.queues.Normalize(ctx, q.ID)
	if err != nil {
		p.log.Error().Err(err).Uint("queue_id", q.ID).Msg("normalize failed")
		return
	}
	if moved == 0 {
		return
	}

	p.log.Warn().Uint("queue_id", q.ID).Int("moved", moved).Msg("queue positions repaired")
	ev := ws.NewEvent(ws.EventQueueNormalized, q.ID, map[string]int{"moved": moved})
	if err := p.events.Publish(ctx, ev); err != nil {
		p.log.Warn().Err(err).Msg("queue event not published")
	}
}

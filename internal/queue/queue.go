package queue

import (
	"context"

	"github.com/tsukisama9292/judgemicro/internal/metrics"
	"github.com/tsukisama9292/judgemicro/internal/model"
)

// Job is one queued single-submission evaluation. Exactly one of Result or
// Err receives a value.
type Job struct {
	ID         string
	Submission model.Submission
	Result     chan model.Verdict
	Err        chan error
	Ctx        context.Context
}

type Manager struct {
	jobQueue chan *Job
}

func NewManager(capacity int) *Manager {
	return &Manager{
		jobQueue: make(chan *Job, capacity),
	}
}

func (m *Manager) Submit(job *Job) {
	m.jobQueue <- job
	metrics.QueueDepth.Set(float64(len(m.jobQueue)))
}

func (m *Manager) NextJob() <-chan *Job {
	return m.jobQueue
}

func (m *Manager) UpdateQueueMetric() {
	metrics.QueueDepth.Set(float64(len(m.jobQueue)))
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"claimintake/internal/app"
	"claimintake/internal/platform/rabbitmq"
)

type fakeRunner struct {
	err  error
	jobs []rabbitmq.CaseJob
}

func (r *fakeRunner) ProcessJob(_ context.Context, job rabbitmq.CaseJob) app.BulkItem {
	r.jobs = append(r.jobs, job)
	item := app.BulkItem{CaseID: job.CaseID}
	if r.err != nil {
		item.Err, item.Error = r.err, r.err.Error()
		return item
	}
	item.Result = &app.ProcessResult{CaseID: job.CaseID, Status: app.ResultSucceeded}
	return item
}

func (r *fakeRunner) Limit() int { return 2 }

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *fakeAck) Ack(bool) error { a.acked = true; return nil }

func (a *fakeAck) Nack(_, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func TestProcessAcksSuccessfulJob(t *testing.T) {
	runner := &fakeRunner{}
	w := NewCaseProcessWorker(nil, runner, "q", nil)
	ack := &fakeAck{}

	w.process(context.Background(), []byte(`{"job_id":"j1","tenant_id":"t1","case_id":"c1"}`), false, ack)

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Equal(t, []rabbitmq.CaseJob{{JobID: "j1", TenantID: "t1", CaseID: "c1"}}, runner.jobs)
}

func TestProcessDropsMalformedJob(t *testing.T) {
	runner := &fakeRunner{}
	w := NewCaseProcessWorker(nil, runner, "q", nil)

	for _, body := range []string{`not json`, `{"job_id":"j1","tenant_id":"t1"}`} {
		ack := &fakeAck{}
		w.process(context.Background(), []byte(body), false, ack)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	}
	assert.Empty(t, runner.jobs)
}

func TestProcessDropsUnknownCase(t *testing.T) {
	w := NewCaseProcessWorker(nil, &fakeRunner{err: fmt.Errorf("lookup: %w", app.ErrCaseNotFound)}, "q", nil)
	ack := &fakeAck{}

	w.process(context.Background(), []byte(`{"tenant_id":"t1","case_id":"c1"}`), false, ack)

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestProcessRequeuesOnce(t *testing.T) {
	w := NewCaseProcessWorker(nil, &fakeRunner{err: errors.New("mysql: connection refused")}, "q", nil)

	first := &fakeAck{}
	w.process(context.Background(), []byte(`{"tenant_id":"t1","case_id":"c1"}`), false, first)
	assert.True(t, first.requeue)

	second := &fakeAck{}
	w.process(context.Background(), []byte(`{"tenant_id":"t1","case_id":"c1"}`), true, second)
	assert.True(t, second.nacked)
	assert.False(t, second.requeue)
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// CaseJob asks the worker to re-run a case from its stored files.
type CaseJob struct {
	JobID    string `json:"job_id"`
	TenantID string `json:"tenant_id"`
	CaseID   string `json:"case_id"`
}

type CaseJobPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewCaseJobPublisher(conn *amqp.Connection, queueName string) *CaseJobPublisher {
	return &CaseJobPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *CaseJobPublisher) Publish(ctx context.Context, jobs ...CaseJob) error {
	if len(jobs) == 0 {
		return nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	for _, job := range jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal case job failed: %w", err)
		}
		if err := ch.PublishWithContext(
			ctx,
			"",
			p.queueName,
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				MessageId:    job.JobID,
				Body:         payload,
				DeliveryMode: amqp.Persistent,
			},
		); err != nil {
			return fmt.Errorf("publish case job failed: %w", err)
		}
	}
	return nil
}

// DeclareQueue declares the durable work queue shared by publisher and worker.
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare queue failed: %w", err)
	}
	return q, nil
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/example/section-sniper/internal/coursetask"
)

// ConnectTimeoutError is returned when the broker does not answer in time.
type ConnectTimeoutError struct{}

func (e *ConnectTimeoutError) Error() string { return "mqtt connect timeout" }

type Message struct {
	CycleID     string `json:"cycle_id"`
	StudentID   string `json:"student_id"`
	CourseCode  string `json:"course_code"`
	CourseName  string `json:"course_name,omitempty"`
	Outcome     string `json:"outcome"`
	SectionID   int64  `json:"section_id,omitempty"`
	SectionName string `json:"section_name,omitempty"`
	Polls       int    `json:"polls"`
	Error       string `json:"error,omitempty"`
	Timestamp   string `json:"ts"`
}

func NewMessage(cycleID uuid.UUID, studentID string, r coursetask.Result, now time.Time) Message {
	m := Message{
		CycleID:     cycleID.String(),
		StudentID:   studentID,
		CourseCode:  r.CourseCode,
		CourseName:  r.CourseName,
		Outcome:     r.Status.String(),
		SectionID:   r.SectionID,
		SectionName: r.SectionName,
		Polls:       r.Polls,
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
	}
	if r.Err != nil {
		m.Error = r.Err.Error()
	}
	return m
}

// Topic returns the per-course topic under base.
func Topic(base, courseCode string) string {
	return strings.TrimRight(base, "/") + "/" + courseCode
}

// Publisher sends task results to an MQTT broker.
type Publisher struct {
	client paho.Client
	topic  string
	mu     sync.Mutex
}

func NewPublisher(brokerURL, clientID, topic string) *Publisher {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)
	return &Publisher{client: paho.NewClient(opts), topic: topic}
}

func (p *Publisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return &ConnectTimeoutError{}
	}
	return token.Error()
}

// Record implements orchestrator.ResultSink.
func (p *Publisher) Record(ctx context.Context, cycleID uuid.UUID, studentID string, r coursetask.Result) error {
	payload, err := json.Marshal(NewMessage(cycleID, studentID, r, time.Now()))
	if err != nil {
		return fmt.Errorf("mqtt: encode: %w", err)
	}
	p.mu.Lock()
	token := p.client.Publish(Topic(p.topic, r.CourseCode), 1, false, payload)
	p.mu.Unlock()

	wait := 5 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		wait = time.Until(dl)
	}
	if !token.WaitTimeout(wait) {
		return errors.New("mqtt: publish timeout")
	}
	return token.Error()
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

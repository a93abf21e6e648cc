package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sst-resolve/resolve-bot/internal/model"
)

const publishTimeout = 5 * time.Second

// messageWriter: то, что нужно продюсеру от kafka.Writer (для подмены в тестах).
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TicketEvent is the message body written to the ticket topic.
type TicketEvent struct {
	Event       string             `json:"event"`
	TicketID    uint64             `json:"ticket_id"`
	UserNumber  string             `json:"user_number"`
	Category    string             `json:"category"`
	Subcategory string             `json:"subcategory"`
	Location    *string            `json:"location,omitempty"`
	Description *string            `json:"description,omitempty"`
	Details     json.RawMessage    `json:"details,omitempty"`
	Status      model.TicketStatus `json:"status"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// Producer пишет события тикетов в топик Kafka (best-effort, не блокирует вызывающего).
type Producer struct {
	writer messageWriter
	log    *zap.Logger
	wg     sync.WaitGroup
}

// NewProducer создаёт продюсер. Если brokers или topic пустые, методы no-op.
func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	return &Producer{
		log: log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Enabled reports whether events actually leave the process.
func (p *Producer) Enabled() bool { return p.writer != nil }

// PublishTicket пишет событие асинхронно; ошибки только логируются.
// Ключ сообщения: id тикета, события одного тикета попадают в одну партицию.
func (p *Producer) PublishTicket(event string, t *model.Ticket) {
	if p.writer == nil || t == nil {
		return
	}
	msg, err := encode(event, t)
	if err != nil {
		p.log.Warn("kafka: marshal ticket event", zap.Uint64("ticket_id", t.ID), zap.Error(err))
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.log.Warn("kafka: write ticket event",
				zap.String("event", event), zap.Uint64("ticket_id", t.ID), zap.Error(err))
		}
	}()
}

// PublishTicketSync пишет событие и ждёт подтверждения (для batch-команд).
func (p *Producer) PublishTicketSync(ctx context.Context, event string, t *model.Ticket) error {
	if p.writer == nil {
		return nil
	}
	msg, err := encode(event, t)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close дожидается фоновых отправок и закрывает writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	p.wg.Wait()
	return p.writer.Close()
}

func encode(event string, t *model.Ticket) (kafka.Message, error) {
	ev := TicketEvent{
		Event:       event,
		TicketID:    t.ID,
		UserNumber:  t.UserNumber,
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Location:    t.Location,
		Description: t.Description,
		Status:      t.Status,
		OccurredAt:  time.Now().UTC(),
	}
	if t.Details != nil && json.Valid([]byte(*t.Details)) {
		ev.Details = json.RawMessage(*t.Details)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(strconv.FormatUint(t.ID, 10)), Value: body}, nil
}

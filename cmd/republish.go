package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sst-resolve/resolve-bot/internal/database"
	"github.com/sst-resolve/resolve-bot/internal/handler"
	"github.com/sst-resolve/resolve-bot/internal/kafka"
	"github.com/sst-resolve/resolve-bot/internal/model"
)

var republishOpts struct {
	status string
	since  time.Duration
	batch  int
}

var republishCmd = &cobra.Command{
	Use:   "republish-tickets",
	Short: "Publish ticket.updated for stored tickets to Kafka (rebuild downstream consumers)",
	RunE:  runRepublish,
}

func init() {
	f := republishCmd.Flags()
	f.StringVar(&republishOpts.status, "status", "", "only tickets with this status (open|in_progress|closed)")
	f.DurationVar(&republishOpts.since, "since", 0, "only tickets updated within this window, e.g. 72h")
	f.IntVar(&republishOpts.batch, "batch", 100, "rows read per query")
	rootCmd.AddCommand(republishCmd)
}

func runRepublish(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if len(cfg.KafkaBrokers) == 0 || cfg.KafkaTopicTicket == "" {
		return errors.New("republish-tickets: KAFKA_BROKERS and KAFKA_TOPIC_TICKET are required")
	}
	if republishOpts.status != "" && !model.TicketStatus(republishOpts.status).Valid() {
		return fmt.Errorf("republish-tickets: unknown status %q", republishOpts.status)
	}
	conn, err := database.Open(cfg.DSN(), log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket, log.Named("kafka"))
	defer func() { _ = producer.Close() }()

	q := conn.WithContext(ctx).Model(&model.Ticket{}).Order("id")
	if republishOpts.status != "" {
		q = q.Where("status = ?", republishOpts.status)
	}
	if republishOpts.since > 0 {
		q = q.Where("updated_at >= ?", time.Now().Add(-republishOpts.since))
	}

	var sent int
	var batch []model.Ticket
	res := q.FindInBatches(&batch, republishOpts.batch, func(tx *gorm.DB, n int) error {
		for i := range batch {
			if err := producer.PublishTicketSync(ctx, handler.EventTicketUpdated, &batch[i]); err != nil {
				return fmt.Errorf("ticket %d: %w", batch[i].ID, err)
			}
			sent++
		}
		log.Info("republish-tickets: progress", zap.Int("sent", sent), zap.Int("batch", n))
		return nil
	})
	if res.Error != nil {
		return fmt.Errorf("republish-tickets: %w", res.Error)
	}
	log.Info("republish-tickets: done", zap.Int("sent", sent), zap.String("topic", cfg.KafkaTopicTicket))
	return nil
}

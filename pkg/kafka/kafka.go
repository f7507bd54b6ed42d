package kafka

import (
	"context"
	"time"

	"LovMapServer/config"
	"LovMapServer/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Producer 封装 kafka-go 的 Writer，按 key 做 hash 分区保证同用户消息有序。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建指定 topic 的生产者。
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			Async:        false,
		},
	}
}

// Send 发送一条消息，key 用于分区路由。
func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// Close 关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Handler 消费处理函数，返回错误时消息不提交位点。
type Handler func(ctx context.Context, key, value []byte) error

// Consumer 封装 kafka-go 的 Reader，手动提交位点。
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer 创建指定 topic/group 的消费者。
func NewConsumer(cfg config.KafkaConfig, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          topic,
			GroupID:        groupID,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0, // 手动提交
		}),
	}
}

// Run 拉取循环，阻塞直到 ctx 取消。
// 单条消息处理失败只记日志不提交位点，由下次拉取重试。
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error(ctx, "kafka fetch failed", logger.ErrorField("error", err))
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			logger.Error(ctx, "kafka handle failed",
				logger.String("topic", msg.Topic),
				logger.Int64("offset", msg.Offset),
				logger.ErrorField("error", err),
			)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "kafka commit failed", logger.ErrorField("error", err))
		}
	}
}

// Close 关闭消费者。
func (c *Consumer) Close() error {
	return c.reader.Close()
}

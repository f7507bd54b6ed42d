package mq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"LovMapServer/config"
	"LovMapServer/pkg/ctxmeta"
	"LovMapServer/pkg/kafka"
)

// ==================== 通知任务定义 ====================

// NotifyTask 存放在 Kafka 里的推送任务消息体。
// 消费方是外部推送服务（APNs/FCM 网关），按 user_uuid 分区保证同用户有序。
type NotifyTask struct {
	Type      string `json:"type"`      // newFriendship / newLov / newReaction
	UserUuid  string `json:"user_uuid"` // 接收者
	Title     string `json:"title"`
	Body      string `json:"body"`
	ActorUuid string `json:"actor_uuid,omitempty"`
	LovId     int64  `json:"lov_id,omitempty"`

	// 元数据（用于追踪和重试控制）
	TraceID    string    `json:"trace_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	RetryCount int       `json:"retry_count"`
	MaxRetries int       `json:"max_retries"`
}

// BuildNotifyTask 构造一个推送任务
func BuildNotifyTask(notifyType, userUUID, title, body, actorUUID string, lovID int64) NotifyTask {
	return NotifyTask{
		Type:       notifyType,
		UserUuid:   userUUID,
		Title:      title,
		Body:       body,
		ActorUuid:  actorUUID,
		LovId:      lovID,
		Timestamp:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// WithContext 从 ctx 补充追踪元数据
func (t NotifyTask) WithContext(ctx context.Context) NotifyTask {
	t.TraceID = ctxmeta.TraceID(ctx)
	return t
}

// ==================== 生产者 ====================

var (
	producer   *kafka.Producer
	producerMu sync.Mutex
)

// InitProducer 初始化通知任务生产者，进程启动时调用一次
func InitProducer(cfg config.KafkaConfig) {
	producerMu.Lock()
	defer producerMu.Unlock()
	if producer != nil {
		return
	}
	producer = kafka.NewProducer(cfg, cfg.NotifyTopic)
}

// CloseProducer 关闭生产者
func CloseProducer() error {
	producerMu.Lock()
	defer producerMu.Unlock()
	if producer == nil {
		return nil
	}
	err := producer.Close()
	producer = nil
	return err
}

// SendNotifyTask 投递推送任务
// 生产者未初始化时静默丢弃（本地开发可不起 Kafka）。
func SendNotifyTask(ctx context.Context, task NotifyTask) error {
	producerMu.Lock()
	p := producer
	producerMu.Unlock()
	if p == nil {
		return nil
	}

	task = task.WithContext(ctx)
	data, err := json.Marshal(&task)
	if err != nil {
		return err
	}
	return p.Send(ctx, []byte(task.UserUuid), data)
}

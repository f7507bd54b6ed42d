package config

import (
	"os"
	"strings"
)

// KafkaConfig Kafka 配置。
// 当前只有一个用途：把通知任务投递给外部推送服务消费。
type KafkaConfig struct {
	Brokers     []string `json:"brokers" yaml:"brokers"`
	NotifyTopic string   `json:"notifyTopic" yaml:"notifyTopic"` // 通知任务 topic
}

// DefaultKafkaConfig 返回本地开发的默认配置，支持环境变量覆盖。
func DefaultKafkaConfig() KafkaConfig {
	cfg := KafkaConfig{
		Brokers:     []string{"127.0.0.1:9092"},
		NotifyTopic: "lovmap.notify",
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

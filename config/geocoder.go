package config

import (
	"os"
	"time"
)

// GeocoderConfig 地理编码服务配置。
// 上游是一个返回 {label, lon, lat} 候选列表的外部 HTTP 服务，
// 通过熔断器保护，失败结果不落库。
type GeocoderConfig struct {
	BaseURL   string        `json:"baseUrl" yaml:"baseUrl"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	CacheSize int           `json:"cacheSize" yaml:"cacheSize"` // LRU 缓存条目数

	// 熔断参数
	BreakerMaxRequests uint32        `json:"breakerMaxRequests" yaml:"breakerMaxRequests"` // 半开状态放行请求数
	BreakerInterval    time.Duration `json:"breakerInterval" yaml:"breakerInterval"`       // 统计窗口
	BreakerTimeout     time.Duration `json:"breakerTimeout" yaml:"breakerTimeout"`         // 熔断后恢复等待
}

// DefaultGeocoderConfig 返回默认配置，支持环境变量覆盖。
func DefaultGeocoderConfig() GeocoderConfig {
	cfg := GeocoderConfig{
		BaseURL:            "https://photon.komoot.io",
		Timeout:            3 * time.Second,
		CacheSize:          1024,
		BreakerMaxRequests: 3,
		BreakerInterval:    time.Minute,
		BreakerTimeout:     30 * time.Second,
	}
	if url := os.Getenv("GEOCODER_BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	return cfg
}

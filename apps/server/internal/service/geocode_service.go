package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/config"
	"LovMapServer/consts"
	"LovMapServer/pkg/logger"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
)

// geocodeServiceImpl 地理编码服务实现。
// 上游是 photon 风格的 HTTP 服务，属于第三方依赖：
//   - 熔断器隔离故障，上游抖动不拖垮本服务；
//   - LRU 缓存热点查询，同一地址反复搜索不重复打上游。
type geocodeServiceImpl struct {
	cfg     config.GeocoderConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	cache   *lru.Cache[string, []*dto.GeocodeCandidate]
}

// NewGeocodeService 创建地理编码服务实例
func NewGeocodeService(cfg config.GeocoderConfig) (IGeocodeService, error) {
	cache, err := lru.New[string, []*dto.GeocodeCandidate](cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "geocoder",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 连续 5 次失败熔断
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &geocodeServiceImpl{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		cache:   cache,
	}, nil
}

// photonResponse photon 接口响应（GeoJSON FeatureCollection）
type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			Name    string `json:"name"`
			City    string `json:"city"`
			Street  string `json:"street"`
			Country string `json:"country"`
		} `json:"properties"`
	} `json:"features"`
}

// Search 地址搜索
func (s *geocodeServiceImpl) Search(ctx context.Context, query string, limit int) ([]*dto.GeocodeCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, utils.NewBizError(consts.CodeParamError)
	}
	if limit <= 0 || limit > 10 {
		limit = 5
	}

	cacheKey := fmt.Sprintf("%s|%d", strings.ToLower(query), limit)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetch(ctx, query, limit)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			logger.Warn(ctx, "地理编码熔断中", logger.String("query", query))
			return nil, utils.NewBizError(consts.CodeServiceUnavailable)
		}
		logger.Error(ctx, "地理编码上游失败",
			logger.String("query", query),
			logger.ErrorField("error", err),
		)
		return nil, utils.NewBizError(consts.CodeServiceUnavailable)
	}

	candidates := result.([]*dto.GeocodeCandidate)
	s.cache.Add(cacheKey, candidates)
	return candidates, nil
}

// fetch 调用上游
func (s *geocodeServiceImpl) fetch(ctx context.Context, query string, limit int) ([]*dto.GeocodeCandidate, error) {
	endpoint := fmt.Sprintf("%s/api?q=%s&limit=%d",
		strings.TrimRight(s.cfg.BaseURL, "/"),
		url.QueryEscape(query),
		limit,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}

	var parsed photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	candidates := make([]*dto.GeocodeCandidate, 0, len(parsed.Features))
	for _, f := range parsed.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		label := buildLabel(f.Properties.Name, f.Properties.Street, f.Properties.City, f.Properties.Country)
		city := f.Properties.City
		if city == "" {
			city = NormalizeCity(label)
		}
		candidates = append(candidates, &dto.GeocodeCandidate{
			Label:     label,
			City:      NormalizeCity(city),
			Longitude: f.Geometry.Coordinates[0],
			Latitude:  f.Geometry.Coordinates[1],
		})
	}
	return candidates, nil
}

// buildLabel 拼接展示文本，跳过空段
func buildLabel(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// NormalizeCity 城市名归一化：去数字、折叠空白。
// "75011 Paris" 和 "Paris  " 都归一到 "Paris"，保证按城市聚合时不分裂。
func NormalizeCity(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

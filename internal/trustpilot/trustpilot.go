package trustpilot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("trustpilot config invalid")
	ErrRequestFailed   = errors.New("trustpilot request failed")
	ErrResponseInvalid = errors.New("trustpilot response invalid")
	ErrReviewNotFound  = errors.New("trustpilot review not found")
)

const (
	defaultAPIBase   = "https://api.trustpilot.com/v1"
	defaultTimeout   = 10 * time.Second
	reviewsPageLimit = 100
)

// Config Trustpilot 接入配置
type Config struct {
	APIBase        string `json:"api_base"`         // API 地址，默认官方网关
	APIKey         string `json:"api_key"`          // API Key
	BusinessUnitID string `json:"business_unit_id"` // 商户单元 ID
}

// Review 评价数据
type Review struct {
	ID            string    `json:"id"`
	Stars         int       `json:"stars"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	ConsumerEmail string    `json:"consumer_email"`
	CreatedAt     time.Time `json:"created_at"`
}

// ParseConfig 解析配置
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.normalize()
	return &cfg, nil
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%w: api_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BusinessUnitID) == "" {
		return fmt.Errorf("%w: business_unit_id is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BusinessUnitID = strings.TrimSpace(c.BusinessUnitID)
	if c.APIBase == "" {
		c.APIBase = defaultAPIBase
	}
}

// GetReview 按评价 ID 查询评价
func GetReview(ctx context.Context, cfg *Config, reviewID string) (*Review, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	reviewID = strings.TrimSpace(reviewID)
	if reviewID == "" {
		return nil, ErrReviewNotFound
	}

	endpoint := fmt.Sprintf("%s/reviews/%s", cfg.APIBase, url.PathEscape(reviewID))
	body, status, err := getJSON(ctx, cfg, endpoint)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrReviewNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, status)
	}

	var resp reviewPayload
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return resp.toReview(), nil
}

// FindConsumerReview 按消费者邮箱查询商户单元下最近的评价
func FindConsumerReview(ctx context.Context, cfg *Config, email string) (*Review, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, ErrReviewNotFound
	}

	query := url.Values{}
	query.Set("email", normalized)
	query.Set("perPage", fmt.Sprintf("%d", reviewsPageLimit))
	endpoint := fmt.Sprintf("%s/private/business-units/%s/reviews?%s",
		cfg.APIBase, url.PathEscape(cfg.BusinessUnitID), query.Encode())
	body, status, err := getJSON(ctx, cfg, endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, status)
	}

	var resp struct {
		Reviews []reviewPayload `json:"reviews"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if len(resp.Reviews) == 0 {
		return nil, ErrReviewNotFound
	}
	return resp.Reviews[0].toReview(), nil
}

type reviewPayload struct {
	ID        string `json:"id"`
	Stars     int    `json:"stars"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	Consumer  struct {
		Email string `json:"email"`
	} `json:"consumer"`
}

func (p reviewPayload) toReview() *Review {
	createdAt, _ := time.Parse(time.RFC3339, p.CreatedAt)
	return &Review{
		ID:            p.ID,
		Stars:         p.Stars,
		Title:         p.Title,
		Text:          p.Text,
		ConsumerEmail: strings.ToLower(strings.TrimSpace(p.Consumer.Email)),
		CreatedAt:     createdAt,
	}
}

func getJSON(ctx context.Context, cfg *Config, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("apikey", cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: defaultTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return body, resp.StatusCode, nil
}

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jvlax-y/cekApar/internal/domain"
	"github.com/jvlax-y/cekApar/internal/repository"
)

const resultSuccess = 2000

// profilesResponse 身份服务的统一响应格式
type profilesResponse struct {
	Code    int                   `json:"code"`
	Type    string                `json:"type"`
	Message string                `json:"message"`
	Result  []domain.GuardProfile `json:"result"`
}

// Client 保安资料目录（外部身份服务）
// 不做重试，重试策略由调用方决定
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

var _ repository.ProfileFinder = (*Client)(nil)

// NewClient 创建身份服务客户端
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

// FindGuardProfiles GET /profiles?ids=a,b
func (c *Client) FindGuardProfiles(ctx context.Context, ids []string) ([]domain.GuardProfile, error) {
	if len(ids) == 0 {
		return []domain.GuardProfile{}, nil
	}

	var response profilesResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(ids, ",")).
		SetResult(&response).
		Get("/profiles")
	if err != nil {
		c.logger.Error("Identity service call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call identity service: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("identity service returned HTTP %d", resp.StatusCode())
	}
	if response.Code != resultSuccess {
		c.logger.Error("Identity service returned error",
			zap.Int("code", response.Code),
			zap.String("message", response.Message),
		)
		return nil, fmt.Errorf("identity service error: %s (code: %d)", response.Message, response.Code)
	}

	c.logger.Debug("Guard profiles fetched",
		zap.Int("requested", len(ids)),
		zap.Int("found", len(response.Result)),
	)
	if response.Result == nil {
		return []domain.GuardProfile{}, nil
	}
	return response.Result, nil
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DrawSync/internal/utils/httpclient"
	"DrawSync/internal/utils/retrier"

	"github.com/sirupsen/logrus"
)

// 单次补全调用参数
const (
	completeTimeout = 20 * time.Second
	maxAttempts     = 3
	maxTokens       = 64
	temperature     = 0.8
)

// Config 模型接入配置（OpenAI兼容的chat completions端点）
type Config struct {
	BaseURL string // 如 https://api.openai.com
	APIKey  string
	Model   string
	Proxy   string
}

// Client OpenAI兼容补全客户端。限流与网关抖动按可重试处理，
// 鉴权/参数类错误直接终止。
type Client struct {
	cfg    Config
	http   *http.Client
	logger *logrus.Logger
}

func New(cfg Config, logger *logrus.Logger) *Client {
	return &Client{
		cfg: cfg,
		http: httpclient.New(httpclient.Options{
			Timeout: completeTimeout,
			Proxy:   cfg.Proxy,
		}, logger),
		logger: logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete 发起一次对话补全，返回首个choice的文本内容
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	var content string
	err := retrier.Do(ctx, maxAttempts, isRetriable, func() error {
		reply, err := c.complete(ctx, system, user)
		if err != nil {
			return err
		}
		content = reply
		return nil
	})
	return content, err
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", retrier.Permanent(err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", retrier.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		err := &statusError{code: resp.StatusCode, body: string(raw)}
		if !retriableStatus(resp.StatusCode) {
			return "", retrier.Permanent(err)
		}
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", retrier.Permanent(fmt.Errorf("响应解析失败: %w", err))
	}
	if parsed.Error != nil {
		return "", retrier.Permanent(fmt.Errorf("模型侧错误[%s]: %s", parsed.Error.Type, parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", retrier.Permanent(fmt.Errorf("响应无choices"))
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// statusError 非200响应
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	body := e.body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("模型接口返回 %d: %s", e.code, body)
}

// retriableStatus 限流与网关侧瞬时故障
func retriableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isRetriable 传输层错误一律可重试；statusError 按状态码分流
func isRetriable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return retriableStatus(se.code)
	}
	return true
}

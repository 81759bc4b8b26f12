package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"innoteach/backend/config"
	apperrors "innoteach/backend/pkg/errors"
)

const systemPrompt = "You are a strict but helpful grader. Return constructive feedback and a 0-100 score."

// maxErrorBody 上游错误响应体截断长度
const maxErrorBody = 512

// GradeRequest 评阅请求
type GradeRequest struct {
	Instructions string
	Content      string
}

// GradeResult 评阅结果，Score 为 nil 表示模型未给出可解析的分数
type GradeResult struct {
	Feedback string   `json:"feedback"`
	Score    *float64 `json:"score"`
}

// Client OpenRouter chat completions 客户端
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	siteURL     string
	appName     string
	temperature float64
	logger      *zap.Logger
}

// NewClient 创建客户端，超时由 ai.timeout 控制
func NewClient(cfg *config.AIConfig, logger *zap.Logger) *Client {
	appName := cfg.AppName
	if appName == "" {
		appName = "TeachAI"
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		siteURL:     cfg.SiteURL,
		appName:     appName,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Grade 调用模型生成评语与建议分数
// 非 2xx、网络错误或超时均返回 KindUpstream 错误
func (c *Client) Grade(ctx context.Context, req GradeRequest) (*GradeResult, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
		Temperature: c.temperature,
	}

	start := time.Now()
	raw, status, err := c.doOnce(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		c.logger.Warn("AI 评阅请求失败",
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, apperrors.Upstream(status, err)
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.Upstream(status, fmt.Errorf("解析上游响应失败: %w", err))
	}

	out := ""
	if len(resp.Choices) > 0 {
		out = resp.Choices[0].Message.Content
	}

	c.logger.Debug("AI 评阅完成", zap.Duration("elapsed", time.Since(start)))

	return ParseGradeReply(out), nil
}

func userPrompt(req GradeRequest) string {
	return "Assignment instructions:\n" + req.Instructions +
		"\n\nStudent submission:\n" + req.Content +
		"\n\nReturn JSON: {\"feedback\": string, \"score\": number}"
}

// doOnce 发送一次请求，返回响应体与状态码；status 为 0 表示未收到响应
func (c *Client) doOnce(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.siteURL)
	req.Header.Set("X-Title", c.appName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp.StatusCode, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(raw)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return raw, resp.StatusCode, fmt.Errorf("OpenRouter error %d: %s", resp.StatusCode, text)
	}
	return raw, resp.StatusCode, nil
}

// jsonSpan 匹配首个 "{" 到最后一个 "}" 之间的内容
var jsonSpan = regexp.MustCompile(`\{[\s\S]*\}`)

// ParseGradeReply 从模型输出中尽力提取 {feedback, score}
// 找不到或无法解析 JSON 时整段文本作为 feedback，score 为 nil
func ParseGradeReply(out string) *GradeResult {
	span := jsonSpan.FindString(out)
	if span == "" {
		return &GradeResult{Feedback: out}
	}

	var parsed struct {
		Feedback json.RawMessage `json:"feedback"`
		Score    json.RawMessage `json:"score"`
	}
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return &GradeResult{Feedback: out}
	}

	res := &GradeResult{}
	var feedback string
	if err := json.Unmarshal(parsed.Feedback, &feedback); err == nil {
		res.Feedback = feedback
	}
	var score *float64
	if len(parsed.Score) > 0 && json.Unmarshal(parsed.Score, &score) == nil {
		res.Score = score
	}
	return res
}

// IsTimeout 判断是否为超时导致的上游失败
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const ocrPrompt = "Extract ALL text from this document image. " +
	"Preserve the layout where possible. Output the raw text only, no commentary."

// OpenAIClient OpenAI 兼容端点的视觉 OCR 客户端（LMStudio / qwen-vl 等）
type OpenAIClient struct {
	model   string
	apiKey  string
	baseURL string
	client  *resty.Client
}

// Config 视觉客户端配置
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAIClient 创建视觉 OCR 客户端
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vision base_url 不能为空")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second // OCR 大图耗时长
	}
	client := resty.New()
	client.SetTimeout(timeout)
	return &OpenAIClient{
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  client,
	}, nil
}

// ExtractText 通过多模态 chat/completions 提取图片文本
func (c *OpenAIClient) ExtractText(ctx context.Context, imageData []byte, mime string) (string, error) {
	if mime == "" {
		mime = "image/jpeg"
	}
	encoded := base64.StdEncoding.EncodeToString(imageData)
	request := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": ocrPrompt},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": fmt.Sprintf("data:%s;base64,%s", mime, encoded),
						},
					},
				},
			},
		},
		"temperature": 0,
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request)
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}
	response, err := req.Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("调用视觉模型 failed: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("视觉模型返回错误: %s", response.String())
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return "", fmt.Errorf("解析视觉模型响应failed: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("视觉模型没有返回结果")
	}
	return result.Choices[0].Message.Content, nil
}

// Name 返回模型名称
func (c *OpenAIClient) Name() string { return c.model }

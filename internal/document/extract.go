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

package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"ledger-agent/internal/model/vision"
)

// Extractor 文档文本提取：带文字层的 PDF 直接解析，
// 图片与扫描件走视觉 OCR。
type Extractor struct {
	vision vision.Client
}

// NewExtractor 创建提取器；vc 为 nil 时仅支持文字层 PDF
func NewExtractor(vc vision.Client) *Extractor {
	return &Extractor{vision: vc}
}

// Extract 按 MIME 类型提取文本
func (e *Extractor) Extract(ctx context.Context, data []byte, mime string) (string, error) {
	switch {
	case mime == "application/pdf":
		text, err := extractPDFText(data)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
		// 无文字层的扫描 PDF 无法在此处转图，直接报错
		return "", fmt.Errorf("PDF 无文字层，需要先转为图片再 OCR")
	case strings.HasPrefix(mime, "image/"):
		if e.vision == nil {
			return "", fmt.Errorf("未配置视觉模型，无法处理图片")
		}
		return e.vision.ExtractText(ctx, data, mime)
	default:
		return "", fmt.Errorf("不支持的文档类型 %q", mime)
	}
}

// extractPDFText 从 PDF 二进制数据中提取正文文本，按页拼接
func extractPDFText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("打开 PDF failed: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("获取页数failed: %w", err)
	}
	if numPages == 0 {
		return "", nil
	}

	var buf strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return buf.String(), fmt.Errorf("获取第 %d 页failed: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return buf.String(), fmt.Errorf("创建第 %d 页提取器failed: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return buf.String(), fmt.Errorf("提取第 %d 页文本failed: %w", i, err)
		}
		if text != "" {
			buf.WriteString(text)
			if i < numPages {
				buf.WriteString("\n\n")
			}
		}
	}

	return strings.TrimSpace(buf.String()), nil
}

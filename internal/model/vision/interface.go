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
)

// Client 视觉 OCR 模型接口：从票据图片提取文本
type Client interface {
	// ExtractText 提取图片中的全部文本；mime 如 image/jpeg、image/png
	ExtractText(ctx context.Context, imageData []byte, mime string) (string, error)
	// Name 返回模型名称
	Name() string
}

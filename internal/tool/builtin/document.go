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

package builtin

import (
	"context"

	"ledger-agent/internal/document"
	"ledger-agent/internal/tool"
)

var ocrTextSchema = tool.Schema{
	Type: "object",
	Properties: map[string]tool.SchemaProperty{
		"ocr_text": {Type: "string", Description: "Text extracted from the document"},
	},
	Required: []string{"ocr_text"},
}

// NewClassifyDocumentTool 创建 classify_document 工具
func NewClassifyDocumentTool() tool.Tool {
	return &ledgerTool{
		name:   "classify_document",
		desc:   "Classify a document's type from its text: receipt, invoice, expense or unknown.",
		schema: ocrTextSchema,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			kind := document.Classify(strArg(input, "ocr_text"))
			return jsonResult(map[string]any{"type": string(kind)}), nil
		},
	}
}

// NewExtractDocumentFieldsTool 创建 extract_document_fields 工具
func NewExtractDocumentFieldsTool() tool.Tool {
	return &ledgerTool{
		name: "extract_document_fields",
		desc: "Extract vendor, amount, date and currency from document text. " +
			"Fields that cannot be found are omitted; never guess them.",
		schema: ocrTextSchema,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			fields := document.ExtractFields(strArg(input, "ocr_text"))
			return jsonResult(fields), nil
		},
	}
}

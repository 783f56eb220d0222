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

package llm

import (
	"github.com/cloudwego/eino/schema"

	"ledger-agent/internal/tool"
)

// ToolInfo 将内部工具 Schema 转为 eino 的 ToolInfo
func ToolInfo(name, desc string, s tool.Schema) *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(s.Properties))
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	for pname, prop := range s.Properties {
		params[pname] = &schema.ParameterInfo{
			Type:     paramType(prop.Type),
			Desc:     prop.Description,
			Required: required[pname],
		}
	}
	return &schema.ToolInfo{
		Name:        name,
		Desc:        desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

func paramType(t string) schema.DataType {
	switch t {
	case "number":
		return schema.Number
	case "integer":
		return schema.Integer
	case "boolean":
		return schema.Boolean
	case "array":
		return schema.Array
	case "object":
		return schema.Object
	default:
		return schema.String
	}
}

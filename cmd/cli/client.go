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

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

func apiBaseURL() string {
	if u := os.Getenv("LEDGER_AGENT_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient() *resty.Client {
	c := resty.New().
		SetBaseURL(apiBaseURL()).
		SetTimeout(30 * time.Second)
	if token := os.Getenv("LEDGER_AGENT_TOKEN"); token != "" {
		c.SetAuthToken(token)
	}
	return c
}

func createSession() (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	resp, err := newClient().R().
		SetResult(&out).
		Post("/api/sessions")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("POST /api/sessions: %s", resp.String())
	}
	return out.SessionID, nil
}

func getSession(sessionID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/sessions/" + sessionID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/sessions/%s: %s", sessionID, resp.String())
	}
	return out, nil
}

func getDocument(docID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/documents/" + docID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/documents/%s: %s", docID, resp.String())
	}
	return out, nil
}

func cancelRun(sessionID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Post("/api/sessions/" + sessionID + "/cancel")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST cancel: %s", resp.String())
	}
	return out, nil
}

// streamMessage 提交消息并消费 SSE 事件流直到 run_terminated。
// files 非空时走 multipart 上传。
func streamMessage(sessionID, text string, files []string) error {
	// 消息 Run 可能跑满墙钟，流式请求不设客户端超时
	req := newClient().SetTimeout(0).R().SetDoNotParseResponse(true)
	if len(files) > 0 {
		req.SetMultipartFormData(map[string]string{"text": text})
		for _, f := range files {
			req.SetFile("documents", f)
		}
	} else {
		req.SetHeader("Content-Type", "application/json")
		body, _ := json.Marshal(map[string]string{"text": text})
		req.SetBody(body)
	}

	resp, err := req.Post("/api/sessions/" + sessionID + "/messages")
	if err != nil {
		return err
	}
	raw := resp.RawBody()
	defer raw.Close()
	if resp.StatusCode() != http.StatusOK {
		buf := new(strings.Builder)
		sc := bufio.NewScanner(raw)
		for sc.Scan() {
			buf.WriteString(sc.Text())
		}
		return fmt.Errorf("POST messages: %s", buf.String())
	}

	return consumeSSE(raw)
}

// consumeSSE 逐条打印事件；response_ready 输出应答正文
func consumeSSE(r interface{ Read([]byte) (int, error) }) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			printEvent(event, strings.TrimPrefix(line, "data: "))
		}
	}
	return scanner.Err()
}

func printEvent(event, data string) {
	var ev struct {
		Payload map[string]interface{} `json:"payload"`
	}
	_ = json.Unmarshal([]byte(data), &ev)

	switch event {
	case "response_ready":
		if resp, ok := ev.Payload["response"].(string); ok {
			fmt.Printf("\n%s\n", resp)
		}
	case "state_changed":
		if st, ok := ev.Payload["state"].(string); ok {
			fmt.Printf("  [%s]\n", st)
		}
	case "tool_started":
		fmt.Printf("  -> %v\n", ev.Payload["operation"])
	case "tool_completed":
		if errStr, ok := ev.Payload["error"].(string); ok && errStr != "" {
			fmt.Printf("  <- %v (error: %s)\n", ev.Payload["operation"], errStr)
		} else {
			fmt.Printf("  <- %v\n", ev.Payload["operation"])
		}
	case "validation_rejected":
		fmt.Printf("  !! validation rejected: %v\n", ev.Payload["operation"])
	case "document_stage":
		fmt.Printf("  [doc %v] %v\n", ev.Payload["document"], ev.Payload["stage"])
	case "run_terminated":
		state, _ := ev.Payload["state"].(string)
		if state != "completed" {
			fmt.Printf("  run terminated: %v", ev.Payload["reason"])
			if se, ok := ev.Payload["side_effect"].(string); ok && se != "" {
				fmt.Printf(" (side effect: %s)", se)
			}
			fmt.Println()
		}
	}
}

func expandFiles(args []string) []string {
	var out []string
	for _, a := range args {
		if matches, err := filepath.Glob(a); err == nil && len(matches) > 0 {
			out = append(out, matches...)
		} else {
			out = append(out, a)
		}
	}
	return out
}

func prettyJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

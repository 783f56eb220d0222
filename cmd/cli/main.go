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
	"fmt"
	"os"
	"os/exec"
	"strings"

	"ledger-agent/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "version":
		fmt.Println("ledger-agent cli 0.1.0")
	case "config":
		runConfig()
	case "server":
		if len(args) > 0 && args[0] == "start" {
			runServerStart()
		} else {
			fmt.Fprintf(os.Stderr, "Usage: ledger-agent server start\n")
			os.Exit(1)
		}
	case "session":
		if len(args) > 0 && args[0] == "create" {
			runSessionCreate()
		} else if len(args) > 0 {
			runSessionShow(args[0])
		} else {
			fmt.Fprintf(os.Stderr, "Usage: ledger-agent session create | session <session_id>\n")
			os.Exit(1)
		}
	case "chat":
		runChat(args)
	case "upload":
		runUpload(args)
	case "doc":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: ledger-agent doc <doc_id>\n")
			os.Exit(1)
		}
		runDoc(args[0])
	case "cancel":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: ledger-agent cancel <session_id>\n")
			os.Exit(1)
		}
		runCancel(args[0])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: ledger-agent <command> [args]")
	fmt.Println("  version              - 显示版本")
	fmt.Println("  config               - 显示配置概要")
	fmt.Println("  server start         - 启动 API 服务（go run ./cmd/api）")
	fmt.Println("  session create       - 创建会话，返回 session_id")
	fmt.Println("  session <session_id> - 输出会话历史与文档记录")
	fmt.Println("  chat [session_id]    - 交互式对话（未传时自动创建会话）")
	fmt.Println("  upload <session_id> <file>... [-- message] - 上传票据并入账")
	fmt.Println("  doc <doc_id>         - 查询文档流水线记录")
	fmt.Println("  cancel <session_id>  - 请求取消在途 Run")
}

func runConfig() {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("api.port=%d\n", cfg.API.Port)
	fmt.Printf("company.name=%s\n", cfg.Company.Name)
	fmt.Printf("ledger.base_url=%s\n", cfg.Ledger.BaseURL)
	fmt.Printf("model.llm=%s/%s\n", cfg.Model.LLM.Provider, cfg.Model.LLM.Model)
}

func runServerStart() {
	c := exec.Command("go", "run", "./cmd/api")
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Dir = "."
	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "server start: %v\n", err)
		os.Exit(1)
	}
}

func runSessionCreate() {
	id, err := createSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建会话失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(id)
}

func runSessionShow(sessionID string) {
	sess, err := getSession(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "查询会话失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(sess))
}

func runChat(args []string) {
	sessionID := os.Getenv("LEDGER_AGENT_SESSION_ID")
	if len(args) > 0 {
		sessionID = args[0]
	}
	if sessionID == "" {
		id, err := createSession()
		if err != nil {
			fmt.Fprintf(os.Stderr, "创建会话失败: %v\n", err)
			os.Exit(1)
		}
		sessionID = id
		fmt.Printf("session: %s\n", sessionID)
	}
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		msg := strings.TrimSpace(line)
		if msg == "" {
			continue
		}
		if msg == "exit" || msg == "quit" {
			break
		}
		if err := streamMessage(sessionID, msg, nil); err != nil {
			fmt.Fprintf(os.Stderr, "发送失败: %v\n", err)
		}
	}
}

// runUpload 上传票据：upload <session_id> <file>... [-- message]
func runUpload(args []string) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: ledger-agent upload <session_id> <file>... [-- message]\n")
		os.Exit(1)
	}
	sessionID := args[0]
	rest := args[1:]
	message := "Process these documents and create the appropriate entries."
	for i, a := range rest {
		if a == "--" {
			message = strings.Join(rest[i+1:], " ")
			rest = rest[:i]
			break
		}
	}
	files := expandFiles(rest)
	if err := streamMessage(sessionID, message, files); err != nil {
		fmt.Fprintf(os.Stderr, "上传失败: %v\n", err)
		os.Exit(1)
	}
}

func runDoc(docID string) {
	doc, err := getDocument(docID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "查询文档失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(doc))
}

func runCancel(sessionID string) {
	out, err := cancelRun(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "取消失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

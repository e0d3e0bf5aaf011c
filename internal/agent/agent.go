// Package agent binds the task tools to an LLM tool-calling loop. Every tool
// runs inside a per-request Context so task access is always scoped to the
// authenticated owner.
package agent

import "gorm.io/gorm"

// Context carries the caller identity and storage handle a tool executes with.
type Context struct {
	UserID string
	DB     *gorm.DB
}

// ToolInvocation is one entry of the tool-call trace returned to the client
// and persisted alongside the assistant message.
type ToolInvocation struct {
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
	Result    string                 `json:"result"`
}

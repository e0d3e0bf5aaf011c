package agent

import (
	"context"
	"encoding/json"
	"log"

	"github.com/taskwise-dev/taskwise/internal/llm"
)

const systemPrompt = `You are a Todo assistant that manages tasks using ONLY the provided tools.

CRITICAL RULES:
1. You MUST call the appropriate tool for EVERY task action. NEVER just say you did something - actually call the tool.
2. When the user asks to add a task, IMMEDIATELY call add_task. Do NOT ask follow-up questions unless the title is completely unclear.
3. When the user asks to list tasks, IMMEDIATELY call list_tasks.
4. When the user asks to complete a task, IMMEDIATELY call complete_task.
5. When the user asks to delete a task, IMMEDIATELY call delete_task.
6. When the user asks to update a task, IMMEDIATELY call update_task.
7. NEVER pretend you performed an action without calling a tool. If you didn't call a tool, you didn't do the action.

After calling a tool, briefly confirm the result to the user.
Keep responses short and action-oriented.`

const maxIterations = 5

const (
	emptyReplyFallback    = "I'm sorry, I couldn't process that request."
	maxIterationsFallback = "I apologize, but I wasn't able to complete that request. Please try again."
)

// Result is the outcome of one orchestrated turn.
type Result struct {
	Reply     string
	ToolCalls []ToolInvocation
}

// Run sends the history plus the new user message to the completion service
// with the task tools attached, executing requested tool calls until the
// model produces a final reply or the iteration cap is hit.
func Run(ctx context.Context, client *llm.Client, tc *Context, history []llm.Message, userMessage string) (*Result, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})

	var trace []ToolInvocation

	for i := 0; i < maxIterations; i++ {
		reply, err := client.Chat(ctx, messages, Definitions())

		if err != nil {
			return nil, err
		}

		if len(reply.ToolCalls) == 0 {
			text := reply.Content
			if text == "" {
				text = emptyReplyFallback
			}
			return &Result{Reply: text, ToolCalls: trace}, nil
		}

		messages = append(messages, *reply)

		for _, call := range reply.ToolCalls {
			var arguments map[string]interface{}

			if err := json.Unmarshal([]byte(call.Function.Arguments), &arguments); err != nil {
				arguments = map[string]interface{}{}
			}

			result, err := Execute(tc, call.Function.Name, call.Function.Arguments)

			if err != nil {
				log.Printf("Tool %s failed: %v", call.Function.Name, err)
				result = "Error: " + err.Error()
			}

			trace = append(trace, ToolInvocation{
				ToolName:  call.Function.Name,
				Arguments: arguments,
				Result:    result,
			})

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return &Result{Reply: maxIterationsFallback, ToolCalls: trace}, nil
}

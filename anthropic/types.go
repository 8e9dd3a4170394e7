package anthropic

import "strings"

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentType is the discriminator tag for ContentBlock.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentThinking ContentType = "thinking"
)

// ImageSource holds base64-encoded image data.
type ImageSource struct {
	Type      string `json:"type"` // always "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ContentBlock is one part of a message: text, image, or thinking.
type ContentBlock struct {
	Type     ContentType  `json:"type"`
	Text     string       `json:"text,omitempty"`
	Source   *ImageSource `json:"source,omitempty"`
	Thinking string       `json:"thinking,omitempty"`
}

// TextBlock creates a text ContentBlock.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

// ImageBlock creates an image ContentBlock from base64-encoded data.
func ImageBlock(data string, mediaType string) ContentBlock {
	if mediaType == "" {
		mediaType = "image/png"
	}
	return ContentBlock{
		Type:   ContentImage,
		Source: &ImageSource{Type: "base64", MediaType: mediaType, Data: data},
	}
}

// Message is one conversation turn on the wire.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// UserMessage creates a user Message with text content.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// AssistantMessage creates an assistant Message with text content.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{TextBlock(text)}}
}

// Thinking enables extended thinking with the given token budget.
type Thinking struct {
	Type         string `json:"type"` // "enabled"
	BudgetTokens int    `json:"budget_tokens"`
}

// Tool is a server-side tool definition. Only the web search tool is used.
type Tool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses,omitempty"`
}

// WebSearchTool returns the server-side web search tool definition.
func WebSearchTool(maxUses int) Tool {
	return Tool{Type: "web_search_20250305", Name: "web_search", MaxUses: maxUses}
}

// Request is the Messages API request body.
type Request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
	Thinking  *Thinking `json:"thinking,omitempty"`
	Tools     []Tool    `json:"tools,omitempty"`
}

// Usage tracks token consumption reported by the endpoint.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the Messages API response body on success.
type Response struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Role       Role           `json:"role"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// Text returns the concatenation of all text blocks. Thinking blocks are
// never part of the parseable response.
func (r *Response) Text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == ContentText {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// Reasoning returns the concatenation of all thinking blocks, for display.
func (r *Response) Reasoning() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == ContentThinking {
			sb.WriteString(block.Thinking)
		}
	}
	return sb.String()
}

// apiErrorBody is the error envelope: {"type":"error","error":{...}}.
type apiErrorBody struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

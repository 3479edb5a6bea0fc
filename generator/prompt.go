package generator

import (
	"fmt"
	"strings"
)

// SystemInstruction 固定的系统提示词。
const SystemInstruction = "You write concise, natural LinkedIn comments."

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System string
	User   string
}

var styleInstructions = map[Style]string{
	StyleShort: "Write a short supportive comment.",
	StyleLong:  "Write a longer, more detailed comment that adds value or perspective.",
	StyleEmoji: "Write a short comment that includes 2–4 relevant emojis naturally.",
}

// StyleInstruction returns the style line for s; unknown styles get the emoji line.
func StyleInstruction(s Style) string {
	return styleInstructions[ParseStyle(string(s))]
}

// BuildPrompt 生成评论提示词。
// Tone 暂不参与提示词，只有 Style 决定指令行。
func BuildPrompt(req Request) Prompt {
	var sb strings.Builder
	sb.WriteString("\nYou are an assistant that writes high-quality LinkedIn comments.\n\n")
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Language: natural, professional, friendly.\n")
	sb.WriteString("- Must be 1 short paragraph (2–4 sentences) for short, 3–6 sentences for long.\n")
	sb.WriteString("- Emoji+ style should include relevant emojis but not look spammy.\n")
	sb.WriteString("- DO NOT sound like generic AI; sound human, specific to the post.\n")
	sb.WriteString("- The user will review before posting, so it's okay to be slightly opinionated but stay respectful.\n\n")
	sb.WriteString("Post content:\n")
	sb.WriteString(fmt.Sprintf("\"\"\"%s\"\"\"\n", req.SourceText))
	sb.WriteString(fmt.Sprintf("\nStyle: %s", StyleInstruction(req.Style)))
	sb.WriteString("\nReturn ONLY the comment text, no explanations.")

	return Prompt{
		System: SystemInstruction,
		User:   sb.String(),
	}
}

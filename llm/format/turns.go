package format

import (
	"strings"

	"github.com/BaSui01/uniai/llm"
)

// Turn 一个对话轮次。Closed 为 false 表示末尾尚未得到回复的用户输入。
type Turn struct {
	User      string
	Images    []string
	Audio     []string
	Assistant string
	Closed    bool
}

// Empty 轮次不含任何可发送的内容时返回 true。
func (t Turn) Empty() bool {
	return strings.TrimSpace(t.User) == "" &&
		strings.TrimSpace(t.Assistant) == "" &&
		len(t.Images) == 0 && len(t.Audio) == 0
}

// SplitSystem 抽出全部 system 消息，按出现顺序以换行连接；
// 其余消息保持原顺序返回。
func SplitSystem(msgs []llm.ChatMessage) (string, []llm.ChatMessage) {
	var (
		system []string
		rest   = make([]llm.ChatMessage, 0, len(msgs))
	)
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			if text := m.Text(); text != "" {
				system = append(system, text)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n"), rest
}

// Alternate 把消息整理为严格交替的轮次，并返回抽出的 system 文本。
func Alternate(msgs []llm.ChatMessage) (string, []Turn) {
	system, rest := SplitSystem(msgs)

	var (
		turns []Turn
		input []string
		cur   Turn
	)
	for _, m := range rest {
		if m.Role != llm.RoleAssistant {
			if text := m.Text(); text != "" {
				input = append(input, text)
			}
			cur.Images = append(cur.Images, m.Img.Values()...)
			cur.Audio = append(cur.Audio, m.Audio.Values()...)
			continue
		}
		cur.User = strings.Join(input, "\n")
		cur.Assistant = m.Text()
		cur.Closed = true
		turns = append(turns, cur)
		cur, input = Turn{}, nil
	}
	cur.User = strings.Join(input, "\n")
	if !cur.Empty() {
		turns = append(turns, cur)
	}
	return system, turns
}

// CheckTurns 所有轮次均无内容时返回 EmptyInput。
func CheckTurns(provider llm.Provider, turns []Turn) error {
	for _, t := range turns {
		if !t.Empty() {
			return nil
		}
	}
	return llm.NewError(llm.ErrEmptyInput, provider, "no usable content in messages")
}

// CheckMessages 没有任何一条消息携带文本、图片或音频时返回 EmptyInput。
func CheckMessages(provider llm.Provider, msgs []llm.ChatMessage) error {
	for _, m := range msgs {
		if m.HasPayload() {
			return nil
		}
	}
	return llm.NewError(llm.ErrEmptyInput, provider, "no usable content in messages")
}

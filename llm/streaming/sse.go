package streaming

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// maxEventBytes 单个事件的最大长度，超出视为解析错误。
const maxEventBytes = 8 << 20

// Event 上游的一个事件。SSE 中 Name 为 event 字段，JSON 数组中为空。
type Event struct {
	Name string
	Data []byte
}

// Decoder 从字节流中逐个切分事件，结束时返回 io.EOF。
type Decoder interface {
	Next() (Event, error)
}

// SSEDecoder 解析 Server-Sent-Events。
// 多行 data 以换行连接；注释行、id、retry 被忽略；data 为 [DONE] 时结束。
// 部分服务商在流式请求失败时直接返回一行 JSON 而不是 SSE，
// 这类以 { 开头的裸行同样按 data 处理。
type SSEDecoder struct {
	r *bufio.Reader
}

// NewSSEDecoder 创建 SSE 解码器。
func NewSSEDecoder(r io.Reader) *SSEDecoder {
	return &SSEDecoder{r: bufio.NewReaderSize(r, 64<<10)}
}

// Next 返回下一个包含 data 的事件。data 为空的事件（保活帧）被跳过。
func (d *SSEDecoder) Next() (Event, error) {
	var (
		name    string
		data    bytes.Buffer
		hasData bool
		bare    bool // 当前事件由裸 JSON 行开始，后续无字段前缀的行属于同一文档
	)
	for {
		line, err := d.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return Event{}, err
		}
		eof := err == io.EOF
		line = strings.TrimRight(line, "\r\n")

		if line == "" || eof {
			if line != "" {
				d.appendLine(&data, &hasData, &bare, &name, line)
			}
			if hasData {
				if payload := bytes.TrimSpace(data.Bytes()); len(payload) > 0 {
					return d.dispatch(name, payload)
				}
			}
			if eof {
				return Event{}, io.EOF
			}
			name, hasData, bare = "", false, false
			data.Reset()
			continue
		}

		d.appendLine(&data, &hasData, &bare, &name, line)
		if data.Len() > maxEventBytes {
			return Event{}, errEventTooLarge
		}
	}
}

func (d *SSEDecoder) appendLine(data *bytes.Buffer, hasData, bare *bool, name *string, line string) {
	switch {
	case strings.HasPrefix(line, ":"):
	case strings.HasPrefix(line, "data:"):
		if *hasData {
			data.WriteByte('\n')
		}
		data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		*hasData = true
	case strings.HasPrefix(line, "event:"):
		*name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
	case strings.HasPrefix(line, "{") && !*hasData, *bare:
		if *hasData {
			data.WriteByte('\n')
		}
		data.WriteString(line)
		*hasData, *bare = true, true
	}
}

func (d *SSEDecoder) dispatch(name string, payload []byte) (Event, error) {
	if string(payload) == "[DONE]" {
		return Event{}, io.EOF
	}
	return Event{Name: name, Data: append([]byte(nil), payload...)}, nil
}

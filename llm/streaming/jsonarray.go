package streaming

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var errEventTooLarge = errors.New("stream event exceeds size limit")

// JSONArrayDecoder 增量解析一个长 JSON 数组，每个元素解析完成即作为一个事件返回。
// Google 的 streamGenerateContent 在不加 alt=sse 时使用这种格式。
// 响应体若是单个对象（通常是错误），则作为唯一的事件返回。
type JSONArrayDecoder struct {
	br      *bufio.Reader
	dec     *json.Decoder
	started bool
	single  bool
	done    bool
}

// NewJSONArrayDecoder 创建 JSON 数组解码器。
func NewJSONArrayDecoder(r io.Reader) *JSONArrayDecoder {
	br := bufio.NewReader(r)
	return &JSONArrayDecoder{br: br, dec: json.NewDecoder(br)}
}

func (d *JSONArrayDecoder) start() error {
	d.started = true
	first, err := d.peekNonSpace()
	if err != nil {
		return err
	}
	switch first {
	case '[':
		tok, err := d.dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return fmt.Errorf("unexpected token %v", tok)
		}
	case '{':
		d.single = true
	default:
		return fmt.Errorf("unexpected stream start %q", first)
	}
	return nil
}

func (d *JSONArrayDecoder) peekNonSpace() (byte, error) {
	for {
		b, err := d.br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = d.br.ReadByte()
		default:
			return b[0], nil
		}
	}
}

// Next 返回下一个数组元素。
func (d *JSONArrayDecoder) Next() (Event, error) {
	if d.done {
		return Event{}, io.EOF
	}
	if !d.started {
		if err := d.start(); err != nil {
			return Event{}, err
		}
	}
	if d.single {
		d.done = true
		var raw json.RawMessage
		if err := d.dec.Decode(&raw); err != nil {
			return Event{}, err
		}
		return Event{Data: raw}, nil
	}
	if !d.dec.More() {
		d.done = true
		// 数组未闭合就断开视为截断
		if _, err := d.dec.Token(); err != nil {
			if err == io.EOF {
				return Event{}, io.ErrUnexpectedEOF
			}
			return Event{}, err
		}
		return Event{}, io.EOF
	}
	var raw json.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		d.done = true
		if err == io.EOF {
			return Event{}, io.ErrUnexpectedEOF
		}
		return Event{}, err
	}
	if len(raw) > maxEventBytes {
		return Event{}, errEventTooLarge
	}
	return Event{Data: raw}, nil
}

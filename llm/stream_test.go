package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// trackingBody 记录 Close 调用，并在关闭后让阻塞的读取返回。
type trackingBody struct {
	closed atomic.Int32
	gate   chan struct{}
}

func newTrackingBody() *trackingBody { return &trackingBody{gate: make(chan struct{})} }

func (b *trackingBody) Close() error {
	if b.closed.Add(1) == 1 {
		close(b.gate)
	}
	return nil
}

func TestStream_OrderAndEOF(t *testing.T) {
	body := newTrackingBody()
	s := StartStream(context.Background(), body, func(ctx context.Context, emit EmitFunc) error {
		for _, c := range []string{"Hel", "lo", "!"} {
			if err := emit(ChatResponse{Content: c, Model: "m"}); err != nil {
				return err
			}
		}
		return nil
	})

	got, err := ReadAll(s)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Hel", got[0].Content)
	assert.Equal(t, "!", got[2].Content)
	assert.Equal(t, int32(1), body.closed.Load())
	assert.NoError(t, s.Err())
}

func TestStream_ErrorEventThenClose(t *testing.T) {
	boom := NewError(ErrVendor, ProviderGLM, "bad request")
	s := StartStream(context.Background(), nil, func(ctx context.Context, emit EmitFunc) error {
		_ = emit(ChatResponse{Content: "partial"})
		return boom
	})

	var closedWith error
	closed := make(chan struct{})
	s.OnClose(func(err error) {
		closedWith = err
		close(closed)
	})

	r, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial", r.Content)

	_, err = s.Recv()
	assert.Same(t, boom, err)

	<-s.Done()
	<-closed
	assert.Same(t, boom, closedWith)
}

func TestStream_CloseAbortsUpstream(t *testing.T) {
	body := newTrackingBody()
	exited := make(chan struct{})
	s := StartStream(context.Background(), body, func(ctx context.Context, emit EmitFunc) error {
		defer close(exited)
		if err := emit(ChatResponse{Content: "first"}); err != nil {
			return err
		}
		// 模拟阻塞在上游读取，只有关闭响应体才能返回
		<-body.gate
		return errors.New("read on closed body")
	})

	r, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "first", r.Content)

	var hookErr error
	s.OnClose(func(err error) { hookErr = err })

	require.NoError(t, s.Close())

	// Close 返回时生产者已经退出，上游已关闭
	select {
	case <-exited:
	default:
		t.Fatal("producer still running after Close")
	}
	assert.Equal(t, int32(1), body.closed.Load())
	assert.ErrorIs(t, hookErr, ErrStreamClosed)

	_, err = s.Recv()
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.NoError(t, s.Close())
}

func TestStream_CloseUnblocksFullBuffer(t *testing.T) {
	s := StartStream(context.Background(), nil, func(ctx context.Context, emit EmitFunc) error {
		for {
			if err := emit(ChatResponse{Content: "x"}); err != nil {
				return err
			}
		}
	})
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a full buffer")
	}
}

func TestStream_OnCloseAfterFinish(t *testing.T) {
	s := StartStream(context.Background(), nil, func(ctx context.Context, emit EmitFunc) error { return nil })
	<-s.Done()

	called := false
	s.OnClose(func(err error) {
		called = true
		assert.NoError(t, err)
	})
	assert.True(t, called)
	_, err := s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := StartStream(ctx, nil, func(ctx context.Context, emit EmitFunc) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()
	<-s.Done()
	assert.ErrorIs(t, s.Err(), context.Canceled)
}

func TestCollect_MergesSnapshots(t *testing.T) {
	idx0 := 0
	first, _ := json.Marshal(map[string]any{"index": idx0, "id": "call_1", "type": "function",
		"function": map[string]any{"name": "lookup", "arguments": `{"q":`}})
	second, _ := json.Marshal(map[string]any{"index": idx0, "function": map[string]any{"arguments": `"go"}`}})

	s := StartStream(context.Background(), nil, func(ctx context.Context, emit EmitFunc) error {
		_ = emit(ChatResponse{Content: "a", Model: "m1", Object: "chat.completion.chunk"})
		_ = emit(ChatResponse{Tools: []json.RawMessage{first}})
		_ = emit(ChatResponse{Tools: []json.RawMessage{second}})
		_ = emit(ChatResponse{Content: "b", PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5})
		return nil
	})

	out, err := Collect(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "ab", out.Content)
	assert.Equal(t, 5, out.TotalTokens)
	assert.Equal(t, "m1", out.Model)
	require.Len(t, out.Tools, 1)

	var call struct {
		ID       string `json:"id"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	}
	require.NoError(t, json.Unmarshal(out.Tools[0], &call))
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "lookup", call.Function.Name)
	assert.Equal(t, `{"q":"go"}`, call.Function.Arguments)
}

func TestCollect_PropagatesError(t *testing.T) {
	s := StartStream(context.Background(), nil, func(ctx context.Context, emit EmitFunc) error {
		return NewError(ErrContentBlocked, ProviderGoogle, "Content blocked, reason: SAFETY")
	})
	_, err := Collect(context.Background(), s)
	assert.True(t, IsCode(err, ErrContentBlocked))
}

// 拼接所有快照的增量文本即得到完整文本。
func TestProperty_StreamConcatenationReconstructsText(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		parts := rapid.SliceOfN(rapid.StringMatching(`[a-zA-Z0-9 ,.]{1,6}`), 1, 20).Draw(rt, "parts")
		want := ""
		for _, p := range parts {
			want += p
		}
		s := StartStream(context.Background(), nil, func(ctx context.Context, emit EmitFunc) error {
			for _, p := range parts {
				if err := emit(ChatResponse{Content: p}); err != nil {
					return err
				}
			}
			return nil
		})
		out, err := Collect(context.Background(), s)
		if err != nil {
			rt.Fatalf("collect: %v", err)
		}
		if out.Content != want {
			rt.Fatalf("got %q want %q", out.Content, want)
		}
	})
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// ErrStreamClosed 消费端主动关闭后读取流时返回。
var ErrStreamClosed = errors.New("stream closed by consumer")

// streamBuffer 快照通道容量，写满后生产者阻塞。
const streamBuffer = 64

// EmitFunc 写出一个快照。消费端关闭后返回错误，生产者应立即退出。
type EmitFunc func(ChatResponse) error

// ProduceFunc 在独立 goroutine 中运行的生产逻辑。
// 返回 nil 表示正常结束，否则作为流的终止错误。
type ProduceFunc func(ctx context.Context, emit EmitFunc) error

// Stream 单次流式调用的输出通道。每个元素是一个 JSON 编码的
// ChatResponse 快照，顺序与上游事件一致。
type Stream struct {
	ch     chan []byte
	done   chan struct{}
	cancel context.CancelFunc

	upstream  io.Closer
	closeUp   sync.Once
	closeOnce sync.Once
	closed    atomic.Bool

	err error // 在 ch 关闭前写入

	mu       sync.Mutex
	finished bool
	onClose  []func(error)
}

// StartStream 启动生产 goroutine。upstream 为上游响应体，可为 nil；
// 无论以何种方式结束，它都会在 Done 之前被关闭。
func StartStream(ctx context.Context, upstream io.Closer, produce ProduceFunc) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		ch:       make(chan []byte, streamBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
		upstream: upstream,
	}
	go s.run(ctx, produce)
	return s
}

func (s *Stream) run(ctx context.Context, produce ProduceFunc) {
	err := produce(ctx, func(r ChatResponse) error {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		select {
		case s.ch <- data:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if s.closed.Load() {
		err = ErrStreamClosed
	} else if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	s.err = err
	close(s.ch)
	s.closeUpstream()
	s.cancel()

	s.mu.Lock()
	s.finished = true
	hooks := s.onClose
	s.onClose = nil
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(err)
	}
	close(s.done)
}

func (s *Stream) closeUpstream() {
	s.closeUp.Do(func() {
		if s.upstream != nil {
			_ = s.upstream.Close()
		}
	})
}

// Recv 返回下一个快照。正常结束返回 io.EOF，失败返回终止错误。
func (s *Stream) Recv() (*ChatResponse, error) {
	if s.closed.Load() {
		return nil, ErrStreamClosed
	}
	data, ok := <-s.ch
	if !ok {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	var r ChatResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Chunks 暴露原始 JSON 快照，通道关闭后可通过 Err 获取终止原因。
func (s *Stream) Chunks() <-chan []byte { return s.ch }

// Err 返回终止错误，正常结束为 nil。仅在 Chunks 关闭后有意义。
func (s *Stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Done 在所有资源释放完毕后关闭，总是最后触发。
func (s *Stream) Done() <-chan struct{} { return s.done }

// OnClose 注册结束回调，参数为终止错误。流已结束时立即执行。
func (s *Stream) OnClose(fn func(error)) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		fn(s.err)
		return
	}
	s.onClose = append(s.onClose, fn)
	s.mu.Unlock()
}

// Close 关闭消费端：取消上下文、同步关闭上游响应体并等待生产者退出。
// 可重复调用。
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.closeUpstream()
	})
	<-s.done
	return nil
}

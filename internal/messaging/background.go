package messaging

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type envelope struct {
	req   Request
	reply chan Response
}

// Background runs the resolver side in-process. Requests are queued to its
// loop and each one runs to completion on the actor's own context, so a
// caller that stops waiting does not cancel the resolution.
type Background struct {
	handler *Handler
	logger  *zap.Logger

	queue chan envelope
	done  chan struct{}
	ctx   context.Context
	stop  context.CancelFunc

	closeOnce sync.Once
	loopDone  chan struct{}
	inflight  sync.WaitGroup
}

// NewBackground starts the actor loop.
func NewBackground(h *Handler, logger *zap.Logger) *Background {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	b := &Background{
		handler:  h,
		logger:   logger,
		queue:    make(chan envelope),
		done:     make(chan struct{}),
		ctx:      ctx,
		stop:     stop,
		loopDone: make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Background) loop() {
	defer close(b.loopDone)
	for {
		select {
		case env := <-b.queue:
			b.inflight.Add(1)
			go func() {
				defer b.inflight.Done()
				env.reply <- b.handler.Handle(b.ctx, env.req)
			}()
		case <-b.done:
			return
		}
	}
}

// Send queues req and waits for its response or for ctx to end.
func (b *Background) Send(ctx context.Context, req Request) (Response, error) {
	env := envelope{req: req, reply: make(chan Response, 1)}

	select {
	case b.queue <- env:
	case <-b.done:
		return Response{}, ErrClosed
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case resp := <-env.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Close stops accepting requests, cancels the actor context and waits for
// in-flight requests to return.
func (b *Background) Close() error {
	b.closeOnce.Do(func() {
		close(b.done)
		<-b.loopDone
		b.stop()
		b.inflight.Wait()
	})
	return nil
}

package flow

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/learn2go-backend/internal/observability"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

// BestEffort logs a failed side effect and reports whether it succeeded. The error is never
// returned to the caller.
func BestEffort(log *logger.Logger, op string, err error) bool {
	if err == nil {
		return true
	}
	if log != nil {
		log.Warn("best-effort write failed", "op", op, "error", err)
	}
	observability.Current().IncBestEffortFailure(op)
	return false
}

type task struct {
	op string
	fn func(ctx context.Context) error
}

// dispatcher runs a visit's side effects one at a time in submission order.
type dispatcher struct {
	log *logger.Logger
	ctx context.Context

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool
	done   chan struct{}
}

func newDispatcher(ctx context.Context, log *logger.Logger) *dispatcher {
	d := &dispatcher{
		log:  log,
		ctx:  context.WithoutCancel(ctx),
		done: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

// submit drops the task once the dispatcher is closed.
func (d *dispatcher) submit(op string, fn func(ctx context.Context) error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.queue = append(d.queue, task{op: op, fn: fn})
	d.cond.Signal()
	return true
}

func (d *dispatcher) run() {
	defer close(d.done)
	tracer := otel.Tracer("learn2go/flow")
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		t := d.queue[0]
		d.queue[0] = task{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		ctx, span := tracer.Start(d.ctx, "flow."+t.op)
		span.SetAttributes(attribute.String("flow.op", t.op))
		err := t.fn(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		BestEffort(d.log, t.op, err)
		span.End()
	}
}

// close stops intake and waits for already queued tasks to finish.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
	<-d.done
}

package event_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/stockroom/pkg/event"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	bus := event.New()
	var got []string
	bus.Listen("product.deleted", func(_ context.Context, p interface{}) { got = append(got, "a:"+p.(string)) })
	bus.Listen("product.deleted", func(_ context.Context, p interface{}) { got = append(got, "b:"+p.(string)) })
	bus.Listen("other", func(context.Context, interface{}) { got = append(got, "other") })

	bus.Fire(context.Background(), "product.deleted", "7")
	assert.Equal(t, []string{"a:7", "b:7"}, got)
}

func TestFireAsyncSurvivesCancelAndPanics(t *testing.T) {
	prev := logger.L
	logger.L = logger.Discard()
	defer func() { logger.L = prev }()

	bus := event.New()
	var ran atomic.Int32
	var ctxErr atomic.Value
	bus.Listen("x", func(context.Context, interface{}) { panic("bad listener") })
	bus.Listen("x", func(ctx context.Context, _ interface{}) {
		ctxErr.Store(ctx.Err() == nil)
		ran.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.FireAsync(ctx, "x", nil)
	bus.Wait()

	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, true, ctxErr.Load())
}

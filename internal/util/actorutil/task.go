package actorutil

import (
	"errors"
	"time"

	"github.com/primetalk/goio/io"
)

// SafeBackgroundTask runs a blocking function with an optional timeout and hands the
// outcome to callbacks. Callbacks run on the goroutine executing the task, so actors
// must only Send from them.
type SafeBackgroundTask[T any] struct {
	fn        func() (*T, error)
	timeout   *time.Duration
	onError   func(error)
	onSuccess func(T)
}

func NewBackgroundTaskErr(fn func() error) *SafeBackgroundTask[struct{}] {
	return &SafeBackgroundTask[struct{}]{
		fn: func() (*struct{}, error) {
			return &struct{}{}, fn()
		},
	}
}

func (t *SafeBackgroundTask[T]) WithTimeout(timeout time.Duration) *SafeBackgroundTask[T] {
	t.timeout = &timeout
	return t
}

func (t *SafeBackgroundTask[T]) OnError(fn func(error)) *SafeBackgroundTask[T] {
	t.onError = fn
	return t
}

func (t *SafeBackgroundTask[T]) OnSuccess(fn func(T)) *SafeBackgroundTask[T] {
	t.onSuccess = fn
	return t
}

func (t *SafeBackgroundTask[T]) RunAsync() {
	go t.Run()
}

func (t *SafeBackgroundTask[T]) Run() {
	bgFn := io.Eval(t.fn)
	bg := io.Map(bgFn, func(a *T) T {
		if a != nil {
			return *a
		}
		panic(errors.New("result is nil"))
	})
	if t.timeout != nil {
		bg = io.WithTimeout[T](*t.timeout)(bg)
	}
	result := io.RunSync(bg)
	if result.Error != nil {
		if t.onError != nil {
			t.onError(result.Error)
		}
		return
	}

	if t.onSuccess != nil {
		t.onSuccess(result.Value)
	}
}

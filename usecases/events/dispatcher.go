package events

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
)

// DispatchResult is the outcome of one consumer hook during a dispatch cycle.
type DispatchResult struct {
	Consumer string
	Err      error
}

// Dispatcher fans one event out to every registered consumer concurrently and
// joins before returning. A failing or panicking consumer never affects the
// others; its outcome is reported in the result slice.
type Dispatcher struct {
	consumers []Consumer
}

func NewDispatcher(consumers ...Consumer) *Dispatcher {
	return &Dispatcher{consumers: consumers}
}

func (d *Dispatcher) Consumers() []Consumer {
	return d.consumers
}

// Dispatch runs fn once per consumer, each on its own goroutine, and waits
// for all of them. Results are ordered by consumer registration order.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	eventName string,
	fn func(ctx context.Context, c Consumer) error,
) []DispatchResult {
	results := make([]DispatchResult, len(d.consumers))

	var wg sync.WaitGroup
	for i, consumer := range d.consumers {
		wg.Add(1)
		go func(i int, consumer Consumer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("❌ Consumer %s panicked on %s: %v\n%s", consumer.Name(), eventName, r, debug.Stack())
					results[i] = DispatchResult{
						Consumer: consumer.Name(),
						Err:      fmt.Errorf("consumer %s panicked on %s: %v", consumer.Name(), eventName, r),
					}
				}
			}()
			results[i] = DispatchResult{
				Consumer: consumer.Name(),
				Err:      fn(ctx, consumer),
			}
		}(i, consumer)
	}
	wg.Wait()

	for _, result := range results {
		if result.Err != nil {
			log.Printf("❌ Consumer %s failed handling %s: %v", result.Consumer, eventName, result.Err)
		}
	}

	return results
}

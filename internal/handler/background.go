package handler

import (
	"sync"

	"github.com/rs/zerolog"
)

// backgroundTasks tracks work that continues after a webhook has been acknowledged.
type backgroundTasks struct {
	wg     sync.WaitGroup
	logger zerolog.Logger
}

func (b *backgroundTasks) run(name string, fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error().Interface("panic", r).Str("task", name).Msg("background task panicked")
			}
		}()
		fn()
	}()
}

// Wait blocks until every acknowledged webhook has finished processing.
func (b *backgroundTasks) Wait() {
	b.wg.Wait()
}

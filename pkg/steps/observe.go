package steps

import "github.com/rs/zerolog/log"

// Drain reads res until its channel closes, calling onValue for every value in order.
// It returns the first error seen. Values arriving after an error are still drained so
// the producer never blocks.
func Drain[T any](res StepResult[T], onValue func(T)) error {
	var firstErr error
	for r := range res.GetChannel() {
		v, err := r.Value()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			} else {
				log.Debug().Err(err).Msg("dropping additional step error")
			}
			continue
		}
		if firstErr != nil {
			continue
		}
		if onValue != nil {
			onValue(v)
		}
	}
	return firstErr
}

// Observe drains res in the background. onComplete is called exactly once after the
// channel closes, with the first error or nil.
func Observe[T any](res StepResult[T], onValue func(T), onComplete func(error)) {
	go func() {
		err := Drain(res, onValue)
		if onComplete != nil {
			onComplete(err)
		}
	}()
}

package domain

import "github.com/jonboulle/clockwork"

// changeClock stamps ChangedAt on change events.
var changeClock clockwork.Clock = clockwork.NewRealClock()

// UseClock makes change events read time from c until the returned restore
// func is called.
func UseClock(c clockwork.Clock) (restore func()) {
	prev := changeClock
	changeClock = c
	return func() { changeClock = prev }
}

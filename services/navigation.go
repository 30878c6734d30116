package services

import (
	"sync"
	"time"

	"github.com/techagentng/ecodenuncia/client"
)

// Redirector sends the front-end to a route either at once or after the short
// pause that lets the user read a confirmation. Only the latest delayed
// navigation stays pending.
type Redirector struct {
	navigator client.Navigator
	delay     time.Duration
	schedule  func(d time.Duration, f func()) (stop func() bool)

	mu   sync.Mutex
	stop func() bool
}

func NewRedirector(navigator client.Navigator, delay time.Duration) *Redirector {
	return &Redirector{
		navigator: navigator,
		delay:     delay,
		schedule: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

func (r *Redirector) Now(path string) {
	r.Cancel()
	r.navigator.Navigate(path)
}

func (r *Redirector) After(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		r.stop()
	}
	if r.delay <= 0 {
		r.stop = nil
		r.navigator.Navigate(path)
		return
	}
	r.stop = r.schedule(r.delay, func() {
		r.navigator.Navigate(path)
	})
}

// Cancel drops a pending delayed navigation, as leaving the page does.
func (r *Redirector) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}

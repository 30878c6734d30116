package services

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type backendCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
}

// fakeBackend records every call and answers through the optional handler.
type fakeBackend struct {
	mu      sync.Mutex
	calls   []backendCall
	handler func(call backendCall) (interface{}, error)
}

func (b *fakeBackend) do(call backendCall, out interface{}) error {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	handler := b.handler
	b.mu.Unlock()
	if handler == nil {
		return nil
	}
	resp, err := handler(call)
	if err != nil {
		return err
	}
	if out == nil || resp == nil {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (b *fakeBackend) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return b.do(backendCall{Method: "GET", Path: path, Query: query}, out)
}

func (b *fakeBackend) Post(ctx context.Context, path string, body, out interface{}) error {
	return b.do(backendCall{Method: "POST", Path: path, Body: body}, out)
}

func (b *fakeBackend) Put(ctx context.Context, path string, body, out interface{}) error {
	return b.do(backendCall{Method: "PUT", Path: path, Body: body}, out)
}

func (b *fakeBackend) Calls() []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backendCall(nil), b.calls...)
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// manualTimers stands in for time.AfterFunc so delayed navigations fire on demand.
type manualTimers struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (m *manualTimers) schedule(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{f: f}
	m.delays = append(m.delays, d)
	m.pending = append(m.pending, t)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		was := !t.stopped
		t.stopped = true
		return was
	}
}

// fire runs every timer that has not been stopped.
func (m *manualTimers) fire() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, t := range pending {
		if !t.stopped {
			t.f()
		}
	}
}

func newTestRedirector(nav *recordingNavigator) (*Redirector, *manualTimers) {
	timers := &manualTimers{}
	r := NewRedirector(nav, 2*time.Second)
	r.schedule = timers.schedule
	return r, timers
}

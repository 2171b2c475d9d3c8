package logger

import (
	"errors"
	"io"
	"sync"
)

// sink fans log lines out to its writers from a single goroutine so
// callers never block on slow files.
type sink struct {
	lines   chan []byte
	flushes chan chan error
	stopped chan struct{}
	close   sync.Once

	mu  sync.Mutex
	out []io.Writer
	err error
}

func newSink(out ...io.Writer) *sink {
	s := &sink{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		stopped: make(chan struct{}),
	}
	for _, w := range out {
		if w != nil {
			s.out = append(s.out, w)
		}
	}
	go s.run()
	return s
}

func (s *sink) run() {
	defer close(s.stopped)
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				return
			}
			s.write(line)
		case ack := <-s.flushes:
			s.drain()
			ack <- s.firstErr()
		}
	}
}

func (s *sink) drain() {
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				return
			}
			s.write(line)
		default:
			return
		}
	}
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.out {
		if _, err := w.Write(line); err != nil && s.err == nil {
			s.err = err
		}
	}
}

func (s *sink) firstErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Write queues a copy of p. It blocks only when the queue is full.
func (s *sink) Write(p []byte) error {
	if err := s.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	select {
	case <-s.stopped:
		return errors.New("logger: sink closed")
	default:
	}
	s.lines <- append([]byte(nil), p...)
	return nil
}

// Flush waits until every queued line reached the writers.
func (s *sink) Flush() error {
	ack := make(chan error, 1)
	select {
	case s.flushes <- ack:
		return <-ack
	case <-s.stopped:
		return s.firstErr()
	}
}

// Close drains the queue and stops the goroutine.
func (s *sink) Close() error {
	s.close.Do(func() { close(s.lines) })
	<-s.stopped
	return s.firstErr()
}

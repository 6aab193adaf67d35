package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Microphone is an audio capture source. Open acquires the device and
// delivers captured chunks to sink, possibly from another goroutine, until
// the returned Device is closed. A chunk is only valid during the sink call.
type Microphone interface {
	Open(ctx context.Context, sink func(chunk []byte)) (Device, error)
}

// Device is an open capture. Close releases it; no chunks are delivered after
// Close returns.
type Device interface {
	Close() error
}

// FileMicrophone plays an existing audio file as if it were being captured:
// the file is read in ChunkSize pieces, one every Interval.
type FileMicrophone struct {
	Path      string
	ChunkSize int           // default 16 KiB
	Interval  time.Duration // 0 delivers as fast as the sink accepts

	mu   sync.Mutex
	done chan struct{}
}

func (m *FileMicrophone) Open(ctx context.Context, sink func(chunk []byte)) (Device, error) {
	f, err := os.Open(m.Path)
	if err != nil {
		return nil, fmt.Errorf("open capture source: %w", err)
	}

	size := m.ChunkSize
	if size <= 0 {
		size = 16 << 10
	}

	d := &fileDevice{
		file: f,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	m.mu.Lock()
	m.done = d.done
	m.mu.Unlock()

	go d.run(ctx, sink, size, m.Interval)
	return d, nil
}

// Done is closed when the most recently opened capture has delivered the
// whole file, was closed, or failed.
func (m *FileMicrophone) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

type fileDevice struct {
	file *os.File
	stop chan struct{}
	done chan struct{}
	once sync.Once
	err  error
}

func (d *fileDevice) run(ctx context.Context, sink func([]byte), size int, interval time.Duration) {
	defer close(d.done)

	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	buf := make([]byte, size)
	for {
		if tick != nil {
			select {
			case <-d.stop:
				return
			case <-ctx.Done():
				return
			case <-tick:
			}
		} else {
			select {
			case <-d.stop:
				return
			case <-ctx.Done():
				return
			default:
			}
		}

		n, err := d.file.Read(buf)
		if n > 0 {
			sink(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			d.err = err
			return
		}
	}
}

func (d *fileDevice) Close() error {
	var err error
	d.once.Do(func() {
		close(d.stop)
		<-d.done
		err = errors.Join(d.err, d.file.Close())
	})
	return err
}

package subprocess

import (
	"os"
	"sync"

	"github.com/Microsoft/go-subprocess/internal/platform"
)

// pipe owns an OS pipe pair with independent close semantics for each end.
// Both ends are created lazily, together, on first access, so a stream
// nobody asks for never costs a descriptor. A mutex
// guards the pair rather than relying on *os.File's own thread-safety,
// because "close read end" and "read from read end" must not interleave:
// once closed, an end is permanently absent.
type pipe struct {
	mu        sync.Mutex
	opened    bool
	openErr   error
	read      *os.File
	write     *os.File
	readOpen  bool
	writeOpen bool
}

func (p *pipe) ensureOpen() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opened {
		return p.openErr
	}
	p.opened = true
	r, w, err := platform.OpenPipe()
	if err != nil {
		p.openErr = err
		return err
	}
	p.read, p.write = r, w
	p.readOpen, p.writeOpen = true, true
	return nil
}

// readEnd returns the pipe's read end, creating the pair on first call.
// Returns nil if the read end has already been closed.
func (p *pipe) readEnd() (*os.File, error) {
	if err := p.ensureOpen(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.readOpen {
		return nil, nil
	}
	return p.read, nil
}

// writeEnd returns the pipe's write end, creating the pair on first call.
// Returns nil if the write end has already been closed.
func (p *pipe) writeEnd() (*os.File, error) {
	if err := p.ensureOpen(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.writeOpen {
		return nil, nil
	}
	return p.write, nil
}

// closeRead idempotently closes the read end only; it never touches the
// write end.
func (p *pipe) closeRead() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.readOpen {
		return nil
	}
	p.readOpen = false
	return p.read.Close()
}

// closeWrite idempotently closes the write end only.
func (p *pipe) closeWrite() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.writeOpen {
		return nil
	}
	p.writeOpen = false
	return p.write.Close()
}

func (p *pipe) closeBoth() {
	_ = p.closeRead()
	_ = p.closeWrite()
}

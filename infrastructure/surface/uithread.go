package surface

import (
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned for work handed to a surface after Close
var ErrClosed = errors.New("surface closed")

// uiThread runs calls one at a time on a single locked OS thread. HighGUI
// windows must only be touched from the thread that created them.
type uiThread struct {
	calls    chan func()
	quit     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func newUIThread() *uiThread {
	t := &uiThread{
		calls:  make(chan func()),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *uiThread) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.exited)

	for {
		select {
		case fn := <-t.calls:
			fn()
		case <-t.quit:
			return
		}
	}
}

// do runs fn on the UI thread and waits for it to return
func (t *uiThread) do(fn func()) error {
	done := make(chan struct{})
	select {
	case t.calls <- func() {
		defer close(done)
		fn()
	}:
	case <-t.quit:
		return ErrClosed
	}
	<-done
	return nil
}

// stop ends the thread and waits for a call in progress to return. It must not
// be called from the UI thread.
func (t *uiThread) stop() {
	t.stopOnce.Do(func() { close(t.quit) })
	<-t.exited
}

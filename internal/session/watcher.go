package session

import (
	"sync"
	"time"
)

// Watcher periodically checks a store and clears it once its expiry passes.
// It exits after clearing the store or when stopped.
type Watcher struct {
	store    *Store
	onExpire func()

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Watch starts a watcher on store using the store policy's check interval.
// onExpire, if not nil, runs on the watcher goroutine after the store is cleared.
func Watch(store *Store, onExpire func()) *Watcher {
	w := &Watcher{
		store:    store,
		onExpire: onExpire,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	interval := store.Policy().CheckInterval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	go w.run(interval)
	return w
}

func (w *Watcher) run(interval time.Duration) {
	defer close(w.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			if w.store.Expire() {
				if w.onExpire != nil {
					w.onExpire()
				}
				return
			}
		}
	}
}

// Stop cancels the watcher and waits for it to exit. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// Done is closed when the watcher goroutine has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

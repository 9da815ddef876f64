package timer

import (
	"sort"
	"sync"
	"time"
)

type localEntry struct {
	timer Timer
	t     *time.Timer
	gen   uint64
}

// Local - таймеры процесса на time.AfterFunc
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	gen     uint64
	handler Handler
	now     func() time.Time
}

func NewLocal() *Local {
	return &Local{
		entries: make(map[string]*localEntry),
		now:     time.Now,
	}
}

func (l *Local) SetHandler(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = h
}

func (l *Local) Create(name string, fireAt time.Time, period time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if old, ok := l.entries[name]; ok {
		old.t.Stop()
	}

	l.gen++
	entry := &localEntry{
		timer: Timer{Name: name, FireAt: fireAt, Period: period},
		gen:   l.gen,
	}
	l.entries[name] = entry
	l.arm(entry)
}

// arm вызывается под l.mu
func (l *Local) arm(entry *localEntry) {
	delay := entry.timer.FireAt.Sub(l.now())
	if delay < 0 {
		delay = 0
	}
	gen := entry.gen
	name := entry.timer.Name
	entry.t = time.AfterFunc(delay, func() { l.fire(name, gen) })
}

func (l *Local) fire(name string, gen uint64) {
	l.mu.Lock()
	entry, ok := l.entries[name]
	if !ok || entry.gen != gen {
		// Таймер заменен или сброшен после запуска AfterFunc
		l.mu.Unlock()
		return
	}

	if entry.timer.IsPeriodic() {
		entry.timer.FireAt = entry.timer.FireAt.Add(entry.timer.Period)
		if now := l.now(); entry.timer.FireAt.Before(now) {
			entry.timer.FireAt = now.Add(entry.timer.Period)
		}
		l.arm(entry)
	} else {
		delete(l.entries, name)
	}
	handler := l.handler
	l.mu.Unlock()

	if handler != nil {
		handler(name)
	}
}

func (l *Local) Clear(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[name]
	if !ok {
		return false
	}
	entry.t.Stop()
	delete(l.entries, name)
	return true
}

func (l *Local) ClearAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	for name, entry := range l.entries {
		entry.t.Stop()
		delete(l.entries, name)
	}
	return n
}

func (l *Local) GetAll() []Timer {
	l.mu.Lock()
	defer l.mu.Unlock()

	timers := make([]Timer, 0, len(l.entries))
	for _, entry := range l.entries {
		timers = append(timers, entry.timer)
	}
	sort.Slice(timers, func(i, j int) bool { return timers[i].FireAt.Before(timers[j].FireAt) })
	return timers
}

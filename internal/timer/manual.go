package timer

import (
	"sort"
	"sync"
	"time"
)

// Manual - таймеры на виртуальных часах. Срабатывают только в Advance,
// синхронно и в порядке времени срабатывания.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	timers  map[string]Timer
	handler Handler
}

func NewManual(now time.Time) *Manual {
	return &Manual{
		now:    now,
		timers: make(map[string]Timer),
	}
}

// Now - текущее виртуальное время
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) SetHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

func (m *Manual) Create(name string, fireAt time.Time, period time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timers[name] = Timer{Name: name, FireAt: fireAt, Period: period}
}

func (m *Manual) Clear(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.timers[name]; !ok {
		return false
	}
	delete(m.timers, name)
	return true
}

func (m *Manual) ClearAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.timers)
	m.timers = make(map[string]Timer)
	return n
}

func (m *Manual) GetAll() []Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

func (m *Manual) sortedLocked() []Timer {
	timers := make([]Timer, 0, len(m.timers))
	for _, t := range m.timers {
		timers = append(timers, t)
	}
	sort.Slice(timers, func(i, j int) bool {
		if timers[i].FireAt.Equal(timers[j].FireAt) {
			return timers[i].Name < timers[j].Name
		}
		return timers[i].FireAt.Before(timers[j].FireAt)
	})
	return timers
}

// Advance переводит часы на to и вызывает обработчик для каждого
// наступившего срабатывания. Обработчик вызывается без блокировки
// и может создавать и сбрасывать таймеры.
func (m *Manual) Advance(to time.Time) {
	for {
		m.mu.Lock()
		var due *Timer
		if timers := m.sortedLocked(); len(timers) > 0 && !timers[0].FireAt.After(to) {
			due = &timers[0]
		}
		if due == nil {
			m.now = to
			m.mu.Unlock()
			return
		}

		// Просроченный таймер не переводит часы назад
		if due.FireAt.After(m.now) {
			m.now = due.FireAt
		}
		if due.IsPeriodic() {
			next := *due
			next.FireAt = due.FireAt.Add(due.Period)
			m.timers[due.Name] = next
		} else {
			delete(m.timers, due.Name)
		}
		handler := m.handler
		m.mu.Unlock()

		if handler != nil {
			handler(due.Name)
		}
	}
}

// AdvanceBy сдвигает часы на d
func (m *Manual) AdvanceBy(d time.Duration) {
	m.Advance(m.Now().Add(d))
}

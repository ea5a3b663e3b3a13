package timer

import (
	"sync"
	"time"
)

// Event is passed to the fire callback when a timer fires.
type Event struct {
	ID        int
	Repeating bool
	Due       time.Time // Scheduled deadline, not the actual wake-up time
}

// Service manages timed wake-ups with full lifecycle ownership.
// It owns: ID generation, scheduling, repeating logic, cancellation.
// Repeating timers keep a fixed cadence: each deadline is the previous
// deadline plus the interval, so slow callbacks do not cause drift.
type Service struct {
	clock  Clock
	fire   func(Event)
	timers map[int]*entry
	nextID int
	mu     sync.Mutex
}

type entry struct {
	interval time.Duration // 0 = one-shot, >0 = repeating
	due      time.Time
	cancel   func() bool
}

// NewService creates a timer service that calls fire for every timer event.
// fire runs on the clock's goroutine and must not block for long.
func NewService(clock Clock, fire func(Event)) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	return &Service{
		clock:  clock,
		fire:   fire,
		timers: make(map[int]*entry),
	}
}

// After schedules a one-shot timer. Returns the timer ID.
func (s *Service) After(d time.Duration) int {
	return s.schedule(d, 0)
}

// Every schedules a repeating timer whose first fire is d from now.
func (s *Service) Every(d time.Duration) int {
	return s.schedule(d, d)
}

func (s *Service) schedule(d, interval time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	e := &entry{
		interval: interval,
		due:      s.clock.Now().Add(d),
	}
	e.cancel = s.clock.AfterFunc(d, func() {
		s.onFire(id)
	})
	s.timers[id] = e

	return id
}

// onFire dispatches the timer event and reschedules if repeating.
func (s *Service) onFire(id int) {
	s.mu.Lock()
	e, ok := s.timers[id]
	if !ok {
		s.mu.Unlock()
		return // Cancelled before firing
	}

	due := e.due
	repeating := e.interval > 0

	if repeating {
		e.due = due.Add(e.interval)
		wait := e.due.Sub(s.clock.Now())
		if wait < 0 {
			wait = 0
		}
		e.cancel = s.clock.AfterFunc(wait, func() {
			s.onFire(id)
		})
	} else {
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.fire(Event{ID: id, Repeating: repeating, Due: due})
}

// Cancel stops a timer and removes it.
func (s *Service) Cancel(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.timers[id]; ok {
		e.cancel()
		delete(s.timers, id)
	}
}

// CancelAll stops all timers and clears the map.
func (s *Service) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.timers {
		e.cancel()
	}
	s.timers = make(map[int]*entry)
}

// Active returns the number of scheduled timers.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

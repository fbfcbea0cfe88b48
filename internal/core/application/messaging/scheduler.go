package messaging

import (
	"container/heap"
	"sync"
	"time"
)

// timerEntry is one armed ack deadline in the scheduler heap.
type timerEntry struct {
	msgID    string
	deadline time.Time
	index    int
}

// timerHeap orders entries by deadline, earliest first.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	entry := x.(*timerEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*h = old[:n-1]
	return entry
}

// AckScheduler tracks one pending deadline per message id in a min-heap
// drained by a single goroutine. Arming an id that already has a deadline
// replaces it. Expiry callbacks run on their own goroutine so the scheduler
// never holds its mutex across persistence I/O.
type AckScheduler struct {
	mu      sync.Mutex
	entries map[string]*timerEntry
	heap    timerHeap
	expire  func(msgID string)
	wake    chan struct{}
	done    chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// NewAckScheduler creates a stopped scheduler. expire is invoked once for
// every deadline that passes without being cancelled.
func NewAckScheduler(expire func(msgID string)) *AckScheduler {
	return &AckScheduler{
		entries: make(map[string]*timerEntry),
		expire:  expire,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the scheduler goroutine.
func (s *AckScheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop cancels every outstanding deadline and waits for the scheduler
// goroutine to exit. Deadlines armed after Stop are ignored.
func (s *AckScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.entries = make(map[string]*timerEntry)
	s.heap = nil
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
}

// Arm schedules (or reschedules) the expiry callback for msgID after window.
func (s *AckScheduler) Arm(msgID string, window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	deadline := time.Now().Add(window)
	if existing, ok := s.entries[msgID]; ok {
		existing.deadline = deadline
		heap.Fix(&s.heap, existing.index)
	} else {
		entry := &timerEntry{msgID: msgID, deadline: deadline}
		s.entries[msgID] = entry
		heap.Push(&s.heap, entry)
	}

	s.notify()
}

// Cancel drops the pending deadline for msgID, if any.
func (s *AckScheduler) Cancel(msgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[msgID]
	if !ok {
		return
	}

	delete(s.entries, msgID)
	heap.Remove(&s.heap, entry.index)
	s.notify()
}

// Pending reports whether msgID currently has an armed deadline.
func (s *AckScheduler) Pending(msgID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[msgID]
	return ok
}

func (s *AckScheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *AckScheduler) run() {
	defer s.wg.Done()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		now := time.Now()
		due, next := s.collectDue(now)

		for _, msgID := range due {
			s.wg.Add(1)
			go func(id string) {
				defer s.wg.Done()
				s.expire(id)
			}(msgID)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(next.Sub(now))

		select {
		case <-s.done:
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// collectDue removes and returns every expired message id and the wakeup time
// for the next armed deadline.
func (s *AckScheduler) collectDue(now time.Time) ([]string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []string
	for len(s.heap) > 0 && !s.heap[0].deadline.After(now) {
		entry := heap.Pop(&s.heap).(*timerEntry)
		delete(s.entries, entry.msgID)
		due = append(due, entry.msgID)
	}

	next := now.Add(time.Hour)
	if len(s.heap) > 0 {
		next = s.heap[0].deadline
	}
	return due, next
}

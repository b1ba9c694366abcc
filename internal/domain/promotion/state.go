package promotion

import "time"

// NotificationState remembers, for one calendar day, the last target rank
// each member was notified about. It is replaced, not mutated, by Evaluate.
type NotificationState struct {
	date     time.Time
	notified map[string]string
}

func NewNotificationState() *NotificationState {
	return &NotificationState{notified: make(map[string]string)}
}

// Date is the day the recorded notifications belong to; zero before the
// first evaluation.
func (s *NotificationState) Date() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.date
}

// LastNotified returns the target rank name was last notified about today.
func (s *NotificationState) LastNotified(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	rank, ok := s.notified[name]
	return rank, ok
}

func (s *NotificationState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.notified)
}

// forDay returns a private copy of s for today, emptied when s belongs to
// another day.
func (s *NotificationState) forDay(today time.Time) *NotificationState {
	next := &NotificationState{date: today, notified: make(map[string]string)}
	if s == nil || !s.date.Equal(today) {
		return next
	}
	for k, v := range s.notified {
		next.notified[k] = v
	}
	return next
}

// Forget returns a copy of s without the record that name was notified about
// rank, so the next evaluation on the same day emits it again. The record is
// kept when it has since moved on to a different rank.
func (s *NotificationState) Forget(name, rank string) *NotificationState {
	if s == nil {
		return nil
	}
	next := s.forDay(s.date)
	if last, ok := next.notified[name]; ok && last == rank {
		delete(next.notified, name)
	}
	return next
}

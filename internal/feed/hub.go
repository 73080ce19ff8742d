package feed

import (
	"log/slog"
	"sync"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

const subscriberBuffer = 16

// Hub fans participant changes out to the subscribers of a meeting.
type Hub struct {
	log  *slog.Logger
	mu   sync.RWMutex
	next uint64
	subs map[string]map[uint64]chan domain.ParticipantChange
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:  log,
		subs: make(map[string]map[uint64]chan domain.ParticipantChange),
	}
}

type Subscription struct {
	C <-chan domain.ParticipantChange

	hub       *Hub
	meetingID string
	id        uint64
	once      sync.Once
}

func (h *Hub) Subscribe(meetingID string) *Subscription {
	ch := make(chan domain.ParticipantChange, subscriberBuffer)

	h.mu.Lock()
	h.next++
	id := h.next
	if h.subs[meetingID] == nil {
		h.subs[meetingID] = make(map[uint64]chan domain.ParticipantChange)
	}
	h.subs[meetingID][id] = ch
	h.mu.Unlock()

	return &Subscription{C: ch, hub: h, meetingID: meetingID, id: id}
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()

		subs := s.hub.subs[s.meetingID]
		if ch, ok := subs[s.id]; ok {
			delete(subs, s.id)
			close(ch)
		}
		if len(subs) == 0 {
			delete(s.hub.subs, s.meetingID)
		}
	})
}

// Publish never blocks: a subscriber whose buffer is full misses the change.
func (h *Hub) Publish(change domain.ParticipantChange) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs[change.MeetingID] {
		select {
		case ch <- change:
		default:
			h.log.Debug("feed subscriber is slow, change dropped",
				slog.String("meeting_id", change.MeetingID),
				slog.Uint64("subscriber", id),
			)
		}
	}
}

func (h *Hub) Subscribers(meetingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[meetingID])
}

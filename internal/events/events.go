package events

import (
	"sync"
	"time"
)

// Type classifies an event published on the hub.
type Type string

const (
	TypeProgress Type = "progress"
	TypeStatus   Type = "status"
	TypeError    Type = "error"
	TypeComplete Type = "complete"
)

// Event is a single progress or lifecycle notification. Sequence numbers are
// assigned by the hub and strictly increase for the lifetime of the process.
type Event struct {
	Sequence  uint64    `json:"sequence"`
	Type      Type      `json:"type"`
	Phase     string    `json:"phase,omitempty"`
	Percent   float64   `json:"percent,omitempty"`
	Message   string    `json:"message,omitempty"`
	VideoID   int64     `json:"video_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans events out to subscribers and retains a bounded history so late
// joiners can catch up.
type Hub struct {
	mu          sync.Mutex
	nextSeq     uint64
	history     []Event
	historySize int
	subscribers map[chan Event]struct{}
	closed      bool
}

const defaultHistorySize = 256

// NewHub returns a hub retaining up to historySize events. A non-positive
// size selects the default.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Hub{
		nextSeq:     1,
		historySize: historySize,
		subscribers: make(map[chan Event]struct{}),
	}
}

// Publish assigns a sequence number and timestamp, records the event, and
// delivers it to every subscriber. Slow subscribers are skipped rather than
// blocking the publisher.
func (h *Hub) Publish(event Event) Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return event
	}

	event.Sequence = h.nextSeq
	h.nextSeq++
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	return event
}

// Progress publishes a progress event for a video phase.
func (h *Hub) Progress(videoID int64, phase string, percent float64, message string) {
	h.Publish(Event{Type: TypeProgress, VideoID: videoID, Phase: phase, Percent: percent, Message: message})
}

// Status publishes a lifecycle status change for a video.
func (h *Hub) Status(videoID int64, phase, message string) {
	h.Publish(Event{Type: TypeStatus, VideoID: videoID, Phase: phase, Message: message})
}

// Error publishes a failure notification for a video phase.
func (h *Hub) Error(videoID int64, phase, message string) {
	h.Publish(Event{Type: TypeError, VideoID: videoID, Phase: phase, Message: message})
}

// Subscribe registers a new subscriber channel. The returned cancel function
// removes the subscription and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subscribers[ch]; ok {
				delete(h.subscribers, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Since returns retained events with sequence numbers greater than seq,
// oldest first. Pass 0 for the full retained history.
func (h *Hub) Since(seq uint64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Event
	for _, event := range h.history {
		if event.Sequence > seq {
			out = append(out, event)
		}
	}
	return out
}

// Close stops delivery and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[chan Event]struct{})
}

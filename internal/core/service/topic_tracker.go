package service

import "github.com/berfenger/solardash/internal/core/domain"

// TopicTracker records which monitored topics delivered at least one message since
// monitoring last started.
type TopicTracker struct {
	order    []domain.TopicId
	received map[domain.TopicId]bool
}

func NewTopicTracker() *TopicTracker {
	return &TopicTracker{
		received: map[domain.TopicId]bool{},
	}
}

func (t *TopicTracker) StartMonitoring(topics []domain.TopicId) {
	t.order = append([]domain.TopicId(nil), topics...)
	t.received = make(map[domain.TopicId]bool, len(topics))
	for _, topic := range topics {
		t.received[topic] = false
	}
}

// Reset marks every tracked topic as not received.
func (t *TopicTracker) Reset() {
	for topic := range t.received {
		t.received[topic] = false
	}
}

func (t *TopicTracker) MarkReceived(topic domain.TopicId) {
	if _, ok := t.received[topic]; ok {
		t.received[topic] = true
	}
}

// ReceivedTopics lists the tracked topics that delivered data, in monitoring order.
func (t *TopicTracker) ReceivedTopics() []domain.TopicId {
	received := []domain.TopicId{}
	for _, topic := range t.order {
		if t.received[topic] {
			received = append(received, topic)
		}
	}
	return received
}

func (t *TopicTracker) AllReceived() bool {
	for _, received := range t.received {
		if !received {
			return false
		}
	}
	return true
}

func (t *TopicTracker) Missing() []domain.TopicId {
	missing := []domain.TopicId{}
	for _, topic := range t.order {
		if !t.received[topic] {
			missing = append(missing, topic)
		}
	}
	return missing
}

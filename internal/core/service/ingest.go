package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/berfenger/solardash/internal/core/domain"
)

type PayloadError struct {
	Topic   string
	Payload string
	Err     error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid payload %q on topic %s: %s", e.Payload, e.Topic, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

var errNotFinite = errors.New("value is not a finite number")

type IngestResult struct {
	Known   bool
	TopicId domain.TopicId
	Channel domain.Channel
}

type applyFn func(snapshot *domain.SensorSnapshot, value string) error

// IngestMapper turns raw (topic, payload) pairs into typed sensor store updates.
type IngestMapper struct {
	store   *SensorStore
	tracker *TopicTracker
	topics  map[string]domain.TopicId
}

func NewIngestMapper(baseTopic string, store *SensorStore, tracker *TopicTracker) *IngestMapper {
	topics := make(map[string]domain.TopicId, len(domain.TopicCatalog))
	for _, id := range domain.TopicCatalog {
		topics[id.TopicName(baseTopic)] = id
	}
	return &IngestMapper{
		store:   store,
		tracker: tracker,
		topics:  topics,
	}
}

func (m *IngestMapper) topicId(topic string) (domain.TopicId, bool) {
	id, ok := m.topics[topic]
	return id, ok
}

// Ingest applies a message to the store. The topic counts as received even when the
// payload cannot be parsed; in that case the previous value is kept and a *PayloadError
// is returned.
func (m *IngestMapper) Ingest(topic, payload string) (IngestResult, error) {
	id, ok := m.topicId(topic)
	if !ok {
		return IngestResult{}, nil
	}
	m.tracker.MarkReceived(id)

	result := IngestResult{
		Known:   true,
		TopicId: id,
		Channel: id.Channel(),
	}

	value := strings.TrimSpace(payload)
	next := m.store.Snapshot()
	if err := appliers[id](&next, value); err != nil {
		return result, &PayloadError{Topic: topic, Payload: payload, Err: err}
	}
	m.store.Update(func(s *domain.SensorSnapshot) {
		*s = next
	})
	return result, nil
}

var appliers = map[domain.TopicId]applyFn{
	domain.TOPIC_ID_SERVO: func(s *domain.SensorSnapshot, v string) error {
		return parseInt(v, &s.Servo)
	},
	domain.TOPIC_ID_MEASURED_PV: func(s *domain.SensorSnapshot, v string) error {
		return parseFloat(v, &s.MeasuredPV)
	},
	domain.TOPIC_ID_LDR_RIGHT: func(s *domain.SensorSnapshot, v string) error {
		s.LDRRight = parseFlag(v)
		return nil
	},
	domain.TOPIC_ID_LDR_LEFT: func(s *domain.SensorSnapshot, v string) error {
		s.LDRLeft = parseFlag(v)
		return nil
	},
	domain.TOPIC_ID_RAINDROPS_ANALOG: func(s *domain.SensorSnapshot, v string) error {
		return parseInt(v, &s.RaindropsAnalog)
	},
	domain.TOPIC_ID_RAINDROPS_DIGITAL: func(s *domain.SensorSnapshot, v string) error {
		s.RaindropsDigital = parseFlag(v)
		return nil
	},
	domain.TOPIC_ID_JEMURAN: func(s *domain.SensorSnapshot, v string) error {
		s.Jemuran = parseFlag(v)
		return nil
	},
	domain.TOPIC_ID_SERVO_JEMURAN: func(s *domain.SensorSnapshot, v string) error {
		return parseInt(v, &s.ServoJemuran)
	},
}

func parseInt(value string, dst *int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func parseFloat(value string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errNotFinite
	}
	*dst = v
	return nil
}

// the rig sends "1" for an active digital input, anything else is inactive
func parseFlag(value string) bool {
	return value == "1"
}

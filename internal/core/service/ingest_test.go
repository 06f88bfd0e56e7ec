package service

import (
	"strconv"
	"testing"

	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMapper() (*IngestMapper, *SensorStore, *TopicTracker) {
	store := NewSensorStore()
	tracker := NewTopicTracker()
	tracker.StartMonitoring(domain.TopicCatalog)
	return NewIngestMapper("solar", store, tracker), store, tracker
}

func TestIngestAllTopics(t *testing.T) {
	mapper, store, tracker := newTestMapper()

	messages := map[string]string{
		"solar/servo":             "120",
		"solar/convertedpv":       " 3.75 ",
		"solar/ldr_right":         "1",
		"solar/ldr_left":          "0",
		"solar/raindrops_analog":  "2500",
		"solar/raindrops_digital": "1",
		"solar/jemuran":           "1",
		"solar/servo_jemuran":     "45",
	}
	for topic, payload := range messages {
		res, err := mapper.Ingest(topic, payload)
		require.NoError(t, err)
		assert.True(t, res.Known)
	}

	assert.Equal(t, domain.SensorSnapshot{
		Servo:            120,
		MeasuredPV:       3.75,
		LDRRight:         true,
		LDRLeft:          false,
		RaindropsAnalog:  2500,
		RaindropsDigital: true,
		Jemuran:          true,
		ServoJemuran:     45,
	}, store.Snapshot())
	assert.True(t, tracker.AllReceived())
}

func TestIngestMeasuredPVChannel(t *testing.T) {
	mapper, _, _ := newTestMapper()

	res, err := mapper.Ingest("solar/convertedpv", "1.5")
	require.NoError(t, err)
	assert.Equal(t, domain.TOPIC_ID_MEASURED_PV, res.TopicId)
	assert.Equal(t, domain.CHANNEL_MEASURED_PV, res.Channel)

	_, known := mapper.topicId("solar/measuredpv")
	assert.False(t, known)
}

func TestIngestUnknownTopic(t *testing.T) {
	mapper, store, tracker := newTestMapper()

	res, err := mapper.Ingest("solar/unknown", "1")
	require.NoError(t, err)
	assert.False(t, res.Known)
	assert.Equal(t, domain.InitialSnapshot(), store.Snapshot())
	assert.Len(t, tracker.Missing(), len(domain.TopicCatalog))
}

func TestIngestPayloadErrorKeepsPreviousValue(t *testing.T) {
	mapper, store, tracker := newTestMapper()

	_, err := mapper.Ingest("solar/servo", "100")
	require.NoError(t, err)
	tracker.Reset()

	res, err := mapper.Ingest("solar/servo", "abc")
	require.Error(t, err)
	var payloadErr *PayloadError
	require.ErrorAs(t, err, &payloadErr)
	assert.Equal(t, "abc", payloadErr.Payload)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
	assert.True(t, res.Known)

	assert.Equal(t, 100, store.Snapshot().Servo)
	assert.Contains(t, tracker.ReceivedTopics(), domain.TOPIC_ID_SERVO, "topic counts as received even if unparseable")

	_, err = mapper.Ingest("solar/convertedpv", "NaN")
	require.Error(t, err)
	assert.Equal(t, 0.0, store.Snapshot().MeasuredPV)
}

func TestIngestFlagIsLiteralOne(t *testing.T) {
	mapper, store, _ := newTestMapper()

	for _, payload := range []string{"true", "2", "", "01"} {
		_, err := mapper.Ingest("solar/jemuran", payload)
		require.NoError(t, err)
		assert.False(t, store.Snapshot().Jemuran, "payload %q", payload)
	}
	_, err := mapper.Ingest("solar/jemuran", " 1\n")
	require.NoError(t, err)
	assert.True(t, store.Snapshot().Jemuran)
}

func TestIngestDuplicateOverwrites(t *testing.T) {
	mapper, store, _ := newTestMapper()

	_, _ = mapper.Ingest("solar/raindrops_analog", "4000")
	_, _ = mapper.Ingest("solar/raindrops_analog", "4000")
	assert.Equal(t, 4000, store.Snapshot().RaindropsAnalog)
	_, _ = mapper.Ingest("solar/raindrops_analog", "1200")
	assert.Equal(t, 1200, store.Snapshot().RaindropsAnalog)
}

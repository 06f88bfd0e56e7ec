package service

import (
	"testing"
	"time"

	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestOnboardingStepReentryIsNoop(t *testing.T) {
	o := NewOnboarding(nil)
	assert.Equal(t, domain.STEP_CONNECTING, o.Step())
	assert.True(t, o.View().Visible)

	assert.False(t, o.Show(domain.STEP_CONNECTING))
	assert.True(t, o.Show(domain.STEP_SUBSCRIBING))
	assert.False(t, o.Show(domain.STEP_SUBSCRIBING))
	assert.Equal(t, domain.STEP_SUBSCRIBING, o.Step())
}

func TestOnboardingErrorLog(t *testing.T) {
	now := time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC)
	o := NewOnboarding(func() time.Time { return now })

	o.RecordError("Missing data from 1 topic(s)", []domain.TopicId{domain.TOPIC_ID_JEMURAN})
	view := o.View()
	assert.Equal(t, "Missing data from 1 topic(s)", view.ErrorDescription)
	assert.Equal(t, []string{"[13:04:05] Missing data from 1 topic(s)"}, view.ErrorLog)
	assert.Equal(t, []domain.TopicId{domain.TOPIC_ID_JEMURAN}, view.MissingTopics)

	o.RecordError("Connection timeout - check broker availability", nil)
	assert.Len(t, o.View().ErrorLog, 2)
	assert.Empty(t, o.View().MissingTopics)

	o.ClearErrors()
	view = o.View()
	assert.Empty(t, view.ErrorLog)
	assert.Empty(t, view.ErrorDescription)
}

func TestOnboardingHide(t *testing.T) {
	o := NewOnboarding(nil)
	assert.True(t, o.Hide())
	assert.False(t, o.Hide())
	assert.False(t, o.View().Visible)
}

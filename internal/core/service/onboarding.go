package service

import (
	"fmt"
	"time"

	"github.com/berfenger/solardash/internal/core/domain"
)

const ERROR_LOG_TIME_FORMAT = time.TimeOnly

// Onboarding holds the popup shown while the dashboard connects.
type Onboarding struct {
	view domain.PopupView
	now  func() time.Time
}

func NewOnboarding(now func() time.Time) *Onboarding {
	if now == nil {
		now = time.Now
	}
	return &Onboarding{
		view: domain.PopupView{
			Step:          domain.STEP_CONNECTING,
			Visible:       true,
			ErrorLog:      []string{},
			MissingTopics: []domain.TopicId{},
		},
		now: now,
	}
}

func (o *Onboarding) Step() domain.PopupStep {
	return o.view.Step
}

// Show moves the popup to step. Requesting the step already shown is a no-op and
// returns false.
func (o *Onboarding) Show(step domain.PopupStep) bool {
	if o.view.Step == step {
		return false
	}
	o.view.Step = step
	return true
}

// RecordError stores the error description and appends a timestamped entry to the log.
func (o *Onboarding) RecordError(message string, missing []domain.TopicId) {
	o.view.ErrorDescription = message
	o.view.ErrorLog = append(o.view.ErrorLog, fmt.Sprintf("[%s] %s", o.now().Format(ERROR_LOG_TIME_FORMAT), message))
	o.view.MissingTopics = append([]domain.TopicId{}, missing...)
}

func (o *Onboarding) ClearErrors() {
	o.view.ErrorDescription = ""
	o.view.ErrorLog = []string{}
	o.view.MissingTopics = []domain.TopicId{}
}

func (o *Onboarding) Hide() bool {
	if !o.view.Visible {
		return false
	}
	o.view.Visible = false
	return true
}

func (o *Onboarding) View() domain.PopupView {
	view := o.view
	view.ErrorLog = append([]string{}, o.view.ErrorLog...)
	view.MissingTopics = append([]domain.TopicId{}, o.view.MissingTopics...)
	return view
}

package domain

import "time"

type SunView struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Opacity float64 `json:"opacity"`
}

type RainView struct {
	Intensity    int     `json:"intensity"`
	DropCount    int     `json:"dropCount"`
	SpeedSeconds float64 `json:"speedSeconds"`
	Color        string  `json:"color"`
	StrokeWidth  float64 `json:"strokeWidth"`
	Length       float64 `json:"length"`
}

type LightningView struct {
	Active      bool      `json:"active"`
	Flashes     uint      `json:"flashes"`
	LastFlashAt time.Time `json:"lastFlashAt,omitempty"`
}

type ReadoutsView struct {
	Servo       string `json:"servo"`
	PV          string `json:"pv"`
	Weather     string `json:"weather"`
	Clothesline string `json:"clothesline"`
}

type ConnectionView struct {
	Status  ConnectionStatus `json:"status"`
	Message string           `json:"message"`
}

type SceneView struct {
	Sun         SunView        `json:"sun"`
	MoonOpacity float64        `json:"moonOpacity"`
	SkyColor    string         `json:"skyColor"`
	Weather     Weather        `json:"weather"`
	Rain        *RainView      `json:"rain,omitempty"`
	Lightning   LightningView  `json:"lightning"`
	Readouts    ReadoutsView   `json:"readouts"`
	Chart       []float64      `json:"chart"`
	Connection  ConnectionView `json:"connection"`
	Popup       PopupView      `json:"popup"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// SceneUpdatedEvent is published on the event stream whenever the scene changes.
type SceneUpdatedEvent struct {
	View SceneView
}

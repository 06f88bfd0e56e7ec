package domain

type ConnectionStatus string

const (
	STATUS_DISCONNECTED ConnectionStatus = "disconnected"
	STATUS_CONNECTING   ConnectionStatus = "connecting"
	STATUS_CONNECTED    ConnectionStatus = "connected"
	STATUS_ERROR        ConnectionStatus = "error"
)

type PopupStep string

const (
	STEP_CONNECTING  PopupStep = "connecting"
	STEP_SUBSCRIBING PopupStep = "subscribing"
	STEP_SUCCESS     PopupStep = "success"
	STEP_ERROR       PopupStep = "error"
)

type PopupView struct {
	Step             PopupStep `json:"step"`
	Visible          bool      `json:"visible"`
	ErrorDescription string    `json:"errorDescription,omitempty"`
	ErrorLog         []string  `json:"errorLog"`
	MissingTopics    []TopicId `json:"missingTopics"`
}

type DashboardState struct {
	Lifecycle     string           `json:"lifecycle"`
	Status        ConnectionStatus `json:"status"`
	StatusMessage string           `json:"statusMessage"`
	Popup         PopupView        `json:"popup"`
	Snapshot      SensorSnapshot   `json:"snapshot"`
	Weather       WeatherState     `json:"weather"`
	PVHistory     []float64        `json:"pvHistory"`
	Received      []TopicId        `json:"receivedTopics"`
}

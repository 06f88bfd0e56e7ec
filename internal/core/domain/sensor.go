package domain

import "fmt"

type TopicId string

const (
	TOPIC_ID_SERVO             TopicId = "servo"
	TOPIC_ID_MEASURED_PV       TopicId = "measuredpv"
	TOPIC_ID_LDR_RIGHT         TopicId = "ldr_right"
	TOPIC_ID_LDR_LEFT          TopicId = "ldr_left"
	TOPIC_ID_RAINDROPS_ANALOG  TopicId = "raindrops_analog"
	TOPIC_ID_RAINDROPS_DIGITAL TopicId = "raindrops_digital"
	TOPIC_ID_JEMURAN           TopicId = "jemuran"
	TOPIC_ID_SERVO_JEMURAN     TopicId = "servo_jemuran"
)

// TopicCatalog lists every topic the dashboard subscribes to, in subscription order.
var TopicCatalog = []TopicId{
	TOPIC_ID_SERVO,
	TOPIC_ID_MEASURED_PV,
	TOPIC_ID_LDR_RIGHT,
	TOPIC_ID_LDR_LEFT,
	TOPIC_ID_RAINDROPS_ANALOG,
	TOPIC_ID_RAINDROPS_DIGITAL,
	TOPIC_ID_JEMURAN,
	TOPIC_ID_SERVO_JEMURAN,
}

// the rig publishes the measured PV voltage under a different name
var topicSuffixes = map[TopicId]string{
	TOPIC_ID_MEASURED_PV: "convertedpv",
}

func (id TopicId) TopicName(baseTopic string) string {
	suffix, ok := topicSuffixes[id]
	if !ok {
		suffix = string(id)
	}
	return fmt.Sprintf("%s/%s", baseTopic, suffix)
}

func (id TopicId) Channel() Channel {
	return topicChannels[id]
}

type Channel string

const (
	CHANNEL_SERVO             Channel = "servo"
	CHANNEL_MEASURED_PV       Channel = "measuredPV"
	CHANNEL_LDR_RIGHT         Channel = "ldrRight"
	CHANNEL_LDR_LEFT          Channel = "ldrLeft"
	CHANNEL_RAINDROPS_ANALOG  Channel = "raindropsAnalog"
	CHANNEL_RAINDROPS_DIGITAL Channel = "raindropsDigital"
	CHANNEL_JEMURAN           Channel = "jemuran"
	CHANNEL_SERVO_JEMURAN     Channel = "servoJemuran"
)

var topicChannels = map[TopicId]Channel{
	TOPIC_ID_SERVO:             CHANNEL_SERVO,
	TOPIC_ID_MEASURED_PV:       CHANNEL_MEASURED_PV,
	TOPIC_ID_LDR_RIGHT:         CHANNEL_LDR_RIGHT,
	TOPIC_ID_LDR_LEFT:          CHANNEL_LDR_LEFT,
	TOPIC_ID_RAINDROPS_ANALOG:  CHANNEL_RAINDROPS_ANALOG,
	TOPIC_ID_RAINDROPS_DIGITAL: CHANNEL_RAINDROPS_DIGITAL,
	TOPIC_ID_JEMURAN:           CHANNEL_JEMURAN,
	TOPIC_ID_SERVO_JEMURAN:     CHANNEL_SERVO_JEMURAN,
}

type SensorSnapshot struct {
	Servo            int     `json:"servo"`            // degrees, 0..180
	MeasuredPV       float64 `json:"measuredPV"`       // volts
	LDRRight         bool    `json:"ldrRight"`         // true when bright
	LDRLeft          bool    `json:"ldrLeft"`          // true when bright
	RaindropsAnalog  int     `json:"raindropsAnalog"`  // raw ADC, higher is drier
	RaindropsDigital bool    `json:"raindropsDigital"` // rain detected
	Jemuran          bool    `json:"jemuran"`          // clothesline lifted
	ServoJemuran     int     `json:"servoJemuran"`     // degrees
}

func InitialSnapshot() SensorSnapshot {
	return SensorSnapshot{
		Servo:        90,
		ServoJemuran: 90,
	}
}

func (s SensorSnapshot) BothLDRDark() bool {
	return !s.LDRRight && !s.LDRLeft
}

func (s SensorSnapshot) BothLDRBright() bool {
	return s.LDRRight && s.LDRLeft
}

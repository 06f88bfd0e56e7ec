package metrics

import (
	"net/http"

	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/core/port"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	connectionStatuses = []domain.ConnectionStatus{
		domain.STATUS_DISCONNECTED,
		domain.STATUS_CONNECTING,
		domain.STATUS_CONNECTED,
		domain.STATUS_ERROR,
	}
	popupSteps = []domain.PopupStep{
		domain.STEP_CONNECTING,
		domain.STEP_SUBSCRIBING,
		domain.STEP_SUCCESS,
		domain.STEP_ERROR,
	}
)

// Renderer exports the dashboard state as prometheus metrics.
type Renderer struct {
	registry *prometheus.Registry

	sensorUpdates      *prometheus.CounterVec
	servoDegrees       prometheus.Gauge
	pvVolts            prometheus.Gauge
	rainAnalog         prometheus.Gauge
	servoJemuran       prometheus.Gauge
	digitalInputs      *prometheus.GaugeVec
	weatherIntensity   prometheus.Gauge
	weatherTransitions *prometheus.CounterVec
	chartPoints        prometheus.Gauge
	connectionStatus   *prometheus.GaugeVec
	popupStep          *prometheus.GaugeVec
	popupErrors        prometheus.Gauge
	missingTopics      prometheus.Gauge
}

func NewRenderer(registry *prometheus.Registry) *Renderer {
	r := &Renderer{
		registry: registry,
		sensorUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solardash_sensor_updates_total",
			Help: "Sensor updates applied, by channel",
		}, []string{"channel"}),
		servoDegrees: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solardash_servo_degrees",
			Help: "Solar tracker servo angle (0=east, 180=west)",
		}),
		pvVolts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solardash_pv_volts",
			Help: "Measured PV voltage",
		}),
		rainAnalog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solardash_raindrops_analog",
			Help: "Raw raindrops sensor reading (higher is drier)",
		}),
		servoJemuran: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solardash_clothesline_servo_degrees",
			Help: "Clothesline servo angle",
		}),
		digitalInputs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solardash_digital_input",
			Help: "Digital sensor inputs (1=active, 0=inactive)",
		}, []string{"channel"}),
		weatherIntensity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solardash_weather_intensity",
			Help: "Rain intensity (0=clear, 1=drizzle, 2=heavy, 3=storm)",
		}),
		weatherTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solardash_weather_transitions_total",
			Help: "Announced weather changes, by new class",
		}, []string{"class"}),
		chartPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solardash_pv_history_points",
			Help: "Samples held in the PV chart",
		}),
		connectionStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solardash_connection_status",
			Help: "Broker connection status (1 for the current status)",
		}, []string{"status"}),
		popupStep: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solardash_onboarding_step",
			Help: "Onboarding popup step (1 for the current step)",
		}, []string{"step"}),
		popupErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solardash_onboarding_errors",
			Help: "Entries in the onboarding error log",
		}),
		missingTopics: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solardash_onboarding_missing_topics",
			Help: "Topics without data at the last completeness check",
		}),
	}

	registry.MustRegister(
		r.sensorUpdates,
		r.servoDegrees,
		r.pvVolts,
		r.rainAnalog,
		r.servoJemuran,
		r.digitalInputs,
		r.weatherIntensity,
		r.weatherTransitions,
		r.chartPoints,
		r.connectionStatus,
		r.popupStep,
		r.popupErrors,
		r.missingTopics,
	)

	r.OnConnectionStatusChanged(domain.STATUS_DISCONNECTED, "")
	return r
}

func (r *Renderer) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Renderer) OnSensorChanged(channel domain.Channel, snapshot domain.SensorSnapshot) {
	r.sensorUpdates.WithLabelValues(string(channel)).Inc()
	switch channel {
	case domain.CHANNEL_SERVO:
		r.servoDegrees.Set(float64(snapshot.Servo))
	case domain.CHANNEL_MEASURED_PV:
		r.pvVolts.Set(snapshot.MeasuredPV)
	case domain.CHANNEL_RAINDROPS_ANALOG:
		r.rainAnalog.Set(float64(snapshot.RaindropsAnalog))
	case domain.CHANNEL_SERVO_JEMURAN:
		r.servoJemuran.Set(float64(snapshot.ServoJemuran))
	case domain.CHANNEL_LDR_RIGHT:
		r.digitalInputs.WithLabelValues(string(channel)).Set(boolGauge(snapshot.LDRRight))
	case domain.CHANNEL_LDR_LEFT:
		r.digitalInputs.WithLabelValues(string(channel)).Set(boolGauge(snapshot.LDRLeft))
	case domain.CHANNEL_RAINDROPS_DIGITAL:
		r.digitalInputs.WithLabelValues(string(channel)).Set(boolGauge(snapshot.RaindropsDigital))
	case domain.CHANNEL_JEMURAN:
		r.digitalInputs.WithLabelValues(string(channel)).Set(boolGauge(snapshot.Jemuran))
	}
}

func (r *Renderer) OnWeatherTransition(weather domain.Weather) {
	r.weatherIntensity.Set(float64(weather.Intensity))
	r.weatherTransitions.WithLabelValues(string(weather.Class)).Inc()
}

func (r *Renderer) OnChartUpdated(points []float64) {
	r.chartPoints.Set(float64(len(points)))
}

func (r *Renderer) OnConnectionStatusChanged(status domain.ConnectionStatus, message string) {
	for _, s := range connectionStatuses {
		r.connectionStatus.WithLabelValues(string(s)).Set(boolGauge(s == status))
	}
}

func (r *Renderer) OnPopupChanged(popup domain.PopupView) {
	for _, s := range popupSteps {
		r.popupStep.WithLabelValues(string(s)).Set(boolGauge(s == popup.Step))
	}
	r.popupErrors.Set(float64(len(popup.ErrorLog)))
	r.missingTopics.Set(float64(len(popup.MissingTopics)))
}

func boolGauge(value bool) float64 {
	if value {
		return 1
	}
	return 0
}

// ensure interface compliance
var _ port.Renderer = (*Renderer)(nil)

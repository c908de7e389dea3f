// Package metrics publishes plant observables to two push/pull sinks: a
// Datadog dogstatsd gauge client, generalized from the teacher's
// internal/datadog (which hardcoded env.Cfg lookups at package scope), and
// a Prometheus collector/HTTP handler, grounded on the example pack's
// danielkucera-gofutura use of client_golang for pull-based scraping.
package metrics

import (
	"net/http"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Datadog wraps a dogstatsd client for fire-and-forget gauge emission.
type Datadog struct {
	client *statsd.Client
	tags   []string
}

func NewDatadog(agentAddr, namespace string, tags []string) *Datadog {
	c, err := statsd.New(agentAddr)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create dogstatsd client")
		return &Datadog{}
	}
	c.Namespace = namespace
	c.Tags = tags
	return &Datadog{client: c, tags: tags}
}

// Gauge emits a gauge metric, silently dropping the sample if the client
// failed to initialize (matches the teacher's best-effort emission).
func (d *Datadog) Gauge(name string, value float64, extraTags ...string) {
	if d.client == nil {
		return
	}
	if err := d.client.Gauge(name, value, extraTags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("failed to emit gauge metric")
	}
}

// Prometheus exposes plant observables for pull-based scraping. Gauges are
// registered once at construction and report whatever their holder last
// set; cmd/rwchcd serves the handler but does not set any of them.
type Prometheus struct {
	registry *prometheus.Registry

	HCircuitAmbient   *prometheus.GaugeVec
	HCircuitWtemp     *prometheus.GaugeVec
	DHWTTemp          *prometheus.GaugeVec
	BoilerTemp        prometheus.Gauge
	ConsumerShift     prometheus.Gauge
	PlantCouldSleep   prometheus.Gauge
}

func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		HCircuitAmbient: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "rwchcd_hcircuit_ambient_celsius",
			Help: "Current measured or modelled ambient temperature per heating circuit.",
		}, []string{"circuit"}),
		HCircuitWtemp: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "rwchcd_hcircuit_wtemp_celsius",
			Help: "Current actual water temperature per heating circuit.",
		}, []string{"circuit"}),
		DHWTTemp: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "rwchcd_dhwt_temp_celsius",
			Help: "Current actual tank temperature per DHWT.",
		}, []string{"dhwt"}),
		BoilerTemp: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "rwchcd_boiler_temp_celsius",
			Help: "Current boiler body temperature.",
		}),
		ConsumerShift: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "rwchcd_consumer_shift_percent",
			Help: "Current plant-wide winning consumer shift, percent.",
		}),
		PlantCouldSleep: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "rwchcd_plant_could_sleep",
			Help: "1 if the plant believes it could sleep this tick, else 0.",
		}),
	}
	return p
}

// Handler returns the HTTP handler to mount at /metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

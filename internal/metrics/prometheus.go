package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "exsim_maker_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	newCounter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      name,
			Help:      help,
		})
		registry.MustRegister(c)
		return c
	}

	m := &Metrics{
		QuotesInserted:  promCounter{newCounter("quotes_inserted_total", "Total number of quote orders sent.")},
		QuotesCancelled: promCounter{newCounter("quotes_cancelled_total", "Total number of quote cancels sent.")},
		HedgesFired:     promCounter{newCounter("hedges_fired_total", "Total number of hedge orders sent.")},
		FillsReceived:   promCounter{newCounter("fills_received_total", "Total number of quote fill events received.")},
		HedgeFills:      promCounter{newCounter("hedge_fills_total", "Total number of hedge fill events received.")},
		OrdersRejected:  promCounter{newCounter("orders_rejected_total", "Total number of venue error callbacks received.")},
		SendFailures:    promCounter{newCounter("send_failures_total", "Total number of command sends that failed locally.")},
	}

	return &Prometheus{Metrics: m, registry: registry}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

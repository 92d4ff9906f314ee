package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrometheusCountersExposed(t *testing.T) {
	p := NewPrometheus()
	p.Metrics.QuotesInserted.Inc()
	p.Metrics.QuotesInserted.Inc()
	p.Metrics.HedgesFired.Inc()

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	text := string(body)
	if !strings.Contains(text, "exsim_maker_bot_quotes_inserted_total 2") {
		t.Fatalf("missing quotes_inserted counter in:\n%s", text)
	}
	if !strings.Contains(text, "exsim_maker_bot_hedges_fired_total 1") {
		t.Fatalf("missing hedges_fired counter in:\n%s", text)
	}
	if !strings.Contains(text, "exsim_maker_bot_send_failures_total 0") {
		t.Fatalf("missing send_failures counter in:\n%s", text)
	}
}

func TestNoopMetricsNeverPanic(t *testing.T) {
	m := NewNoop()
	for _, c := range []Counter{
		m.QuotesInserted, m.QuotesCancelled, m.HedgesFired,
		m.FillsReceived, m.HedgeFills, m.OrdersRejected, m.SendFailures,
	} {
		c.Inc()
	}
}

package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	QuotesInserted  Counter
	QuotesCancelled Counter
	HedgesFired     Counter
	FillsReceived   Counter
	HedgeFills      Counter
	OrdersRejected  Counter
	SendFailures    Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		QuotesInserted:  n,
		QuotesCancelled: n,
		HedgesFired:     n,
		FillsReceived:   n,
		HedgeFills:      n,
		OrdersRejected:  n,
		SendFailures:    n,
	}
}

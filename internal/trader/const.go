package trader

import "time"

const (
	// PositionLimit is the hard bound on net lots; quote volumes are
	// capped so both resting orders filling at once cannot breach it.
	PositionLimit = 100

	TickSize        = 100
	MaxUnhedgedLots = 10

	// The venue publishes books every pollInterval; the hedge deadline
	// leaves four cycles of slack inside the one-minute exposure window.
	pollInterval      = 250 * time.Millisecond
	UnhedgedTimeLimit = 60*time.Second - 4*pollInterval

	minimumBid = 1
	maximumAsk = 1<<31 - 1

	// Extreme tick-aligned prices used for hedge orders so they cross
	// the book immediately.
	MinBidNearestTick = (minimumBid + TickSize) / TickSize * TickSize
	MaxAskNearestTick = maximumAsk / TickSize * TickSize
)

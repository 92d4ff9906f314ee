package exsim

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame kinds. Inbound and outbound share one numbering space so that a
// recorded stream can be replayed without context.
const (
	frameOrderBook   = 1
	frameTradeTicks  = 2
	frameOrderFilled = 3
	frameHedgeFilled = 4
	frameOrderStatus = 5
	frameError       = 6

	frameLogin       = 10
	frameInsertOrder = 11
	frameCancelOrder = 12
	frameHedgeOrder  = 13
)

var errShortFrame = errors.New("frame too short")

// EncodeCommand serializes one outbound frame as a msgpack array of
// [kind, fields...].
func EncodeCommand(cmd Command) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	switch c := cmd.(type) {
	case Login:
		if c.Team == "" {
			return nil, errors.New("login team is required")
		}
		if err := encodeHeader(enc, frameLogin, 2); err != nil {
			return nil, err
		}
		if err := enc.EncodeString(c.Team); err != nil {
			return nil, err
		}
		if err := enc.EncodeString(c.Secret); err != nil {
			return nil, err
		}
	case InsertOrder:
		if err := encodeHeader(enc, frameInsertOrder, 5); err != nil {
			return nil, err
		}
		for _, v := range []uint64{c.OrderID, uint64(c.Side), c.Price, c.Volume, uint64(c.Lifespan)} {
			if err := enc.EncodeUint64(v); err != nil {
				return nil, err
			}
		}
	case CancelOrder:
		if err := encodeHeader(enc, frameCancelOrder, 1); err != nil {
			return nil, err
		}
		if err := enc.EncodeUint64(c.OrderID); err != nil {
			return nil, err
		}
	case HedgeOrder:
		if err := encodeHeader(enc, frameHedgeOrder, 4); err != nil {
			return nil, err
		}
		for _, v := range []uint64{c.OrderID, uint64(c.Side), c.Price, c.Volume} {
			if err := enc.EncodeUint64(v); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported command type %T", cmd)
	}
	return buf.Bytes(), nil
}

// DecodeCommand parses one outbound frame. The bot itself never receives
// commands; this is the counterpart of EncodeCommand for exchange
// harnesses and replay tooling.
func DecodeCommand(data []byte) (Command, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errShortFrame
	}
	kind, err := dec.DecodeUint8()
	if err != nil {
		return nil, err
	}
	switch kind {
	case frameLogin:
		if n-1 < 2 {
			return nil, errShortFrame
		}
		cmd := Login{}
		if cmd.Team, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		if cmd.Secret, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		return cmd, nil
	case frameInsertOrder:
		cmd := InsertOrder{}
		var side, lifespan uint64
		if err := decodeUints(dec, n-1, &cmd.OrderID, &side, &cmd.Price, &cmd.Volume, &lifespan); err != nil {
			return nil, err
		}
		cmd.Side = Side(side)
		cmd.Lifespan = Lifespan(lifespan)
		return cmd, nil
	case frameCancelOrder:
		cmd := CancelOrder{}
		if err := decodeUints(dec, n-1, &cmd.OrderID); err != nil {
			return nil, err
		}
		return cmd, nil
	case frameHedgeOrder:
		cmd := HedgeOrder{}
		var side uint64
		if err := decodeUints(dec, n-1, &cmd.OrderID, &side, &cmd.Price, &cmd.Volume); err != nil {
			return nil, err
		}
		cmd.Side = Side(side)
		return cmd, nil
	}
	return nil, fmt.Errorf("unknown frame kind %d", kind)
}

// DecodeEvent parses one inbound frame.
func DecodeEvent(data []byte) (Event, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errShortFrame
	}
	kind, err := dec.DecodeUint8()
	if err != nil {
		return nil, err
	}
	switch kind {
	case frameOrderBook:
		ev := OrderBook{}
		if err := decodeBookFields(dec, n-1, &ev.Instrument, &ev.Sequence, &ev.AskPrices, &ev.AskVolumes, &ev.BidPrices, &ev.BidVolumes); err != nil {
			return nil, err
		}
		return ev, nil
	case frameTradeTicks:
		ev := TradeTicks{}
		if err := decodeBookFields(dec, n-1, &ev.Instrument, &ev.Sequence, &ev.AskPrices, &ev.AskVolumes, &ev.BidPrices, &ev.BidVolumes); err != nil {
			return nil, err
		}
		return ev, nil
	case frameOrderFilled:
		ev := OrderFilled{}
		if err := decodeUints(dec, n-1, &ev.OrderID, &ev.Price, &ev.Volume); err != nil {
			return nil, err
		}
		return ev, nil
	case frameHedgeFilled:
		ev := HedgeFilled{}
		if err := decodeUints(dec, n-1, &ev.OrderID, &ev.Price, &ev.Volume); err != nil {
			return nil, err
		}
		return ev, nil
	case frameOrderStatus:
		ev := OrderStatus{}
		if err := decodeUints(dec, n-1, &ev.OrderID, &ev.FillVolume, &ev.RemainingVolume); err != nil {
			return nil, err
		}
		if n-1 < 4 {
			return nil, errShortFrame
		}
		fees, err := dec.DecodeInt64()
		if err != nil {
			return nil, err
		}
		ev.Fees = fees
		return ev, nil
	case frameError:
		if n-1 < 2 {
			return nil, errShortFrame
		}
		ev := OrderError{}
		id, err := dec.DecodeUint64()
		if err != nil {
			return nil, err
		}
		msg, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		ev.OrderID = id
		ev.Message = msg
		return ev, nil
	}
	return nil, fmt.Errorf("unknown frame kind %d", kind)
}

// EncodeEvent serializes an inbound frame. The bot never sends events;
// this is the inverse of DecodeEvent for harnesses and replay tooling.
func EncodeEvent(ev Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	switch e := ev.(type) {
	case OrderBook:
		if err := encodeBookFields(enc, frameOrderBook, e.Instrument, e.Sequence, e.AskPrices, e.AskVolumes, e.BidPrices, e.BidVolumes); err != nil {
			return nil, err
		}
	case TradeTicks:
		if err := encodeBookFields(enc, frameTradeTicks, e.Instrument, e.Sequence, e.AskPrices, e.AskVolumes, e.BidPrices, e.BidVolumes); err != nil {
			return nil, err
		}
	case OrderFilled:
		if err := encodeHeader(enc, frameOrderFilled, 3); err != nil {
			return nil, err
		}
		for _, v := range []uint64{e.OrderID, e.Price, e.Volume} {
			if err := enc.EncodeUint64(v); err != nil {
				return nil, err
			}
		}
	case HedgeFilled:
		if err := encodeHeader(enc, frameHedgeFilled, 3); err != nil {
			return nil, err
		}
		for _, v := range []uint64{e.OrderID, e.Price, e.Volume} {
			if err := enc.EncodeUint64(v); err != nil {
				return nil, err
			}
		}
	case OrderStatus:
		if err := encodeHeader(enc, frameOrderStatus, 4); err != nil {
			return nil, err
		}
		for _, v := range []uint64{e.OrderID, e.FillVolume, e.RemainingVolume} {
			if err := enc.EncodeUint64(v); err != nil {
				return nil, err
			}
		}
		if err := enc.EncodeInt64(e.Fees); err != nil {
			return nil, err
		}
	case OrderError:
		if err := encodeHeader(enc, frameError, 2); err != nil {
			return nil, err
		}
		if err := enc.EncodeUint64(e.OrderID); err != nil {
			return nil, err
		}
		if err := enc.EncodeString(e.Message); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported event type %T", ev)
	}
	return buf.Bytes(), nil
}

func encodeHeader(enc *msgpack.Encoder, kind uint8, fields int) error {
	if err := enc.EncodeArrayLen(fields + 1); err != nil {
		return err
	}
	return enc.EncodeUint8(kind)
}

func encodeBookFields(enc *msgpack.Encoder, kind uint8, instrument Instrument, sequence uint32, askPrices, askVolumes, bidPrices, bidVolumes [TopLevelCount]uint64) error {
	if err := encodeHeader(enc, kind, 6); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(instrument)); err != nil {
		return err
	}
	if err := enc.EncodeUint32(sequence); err != nil {
		return err
	}
	for _, levels := range [][TopLevelCount]uint64{askPrices, askVolumes, bidPrices, bidVolumes} {
		if err := enc.EncodeArrayLen(TopLevelCount); err != nil {
			return err
		}
		for _, v := range levels {
			if err := enc.EncodeUint64(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeBookFields(dec *msgpack.Decoder, fields int, instrument *Instrument, sequence *uint32, askPrices, askVolumes, bidPrices, bidVolumes *[TopLevelCount]uint64) error {
	if fields < 6 {
		return errShortFrame
	}
	inst, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	*instrument = Instrument(inst)
	seq, err := dec.DecodeUint32()
	if err != nil {
		return err
	}
	*sequence = seq
	for _, levels := range []*[TopLevelCount]uint64{askPrices, askVolumes, bidPrices, bidVolumes} {
		if err := decodeLevels(dec, levels); err != nil {
			return err
		}
	}
	return nil
}

func decodeLevels(dec *msgpack.Decoder, levels *[TopLevelCount]uint64) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != TopLevelCount {
		return fmt.Errorf("expected %d book levels, got %d", TopLevelCount, n)
	}
	for i := range levels {
		v, err := dec.DecodeUint64()
		if err != nil {
			return err
		}
		levels[i] = v
	}
	return nil
}

func decodeUints(dec *msgpack.Decoder, fields int, dst ...*uint64) error {
	if fields < len(dst) {
		return errShortFrame
	}
	for _, p := range dst {
		v, err := dec.DecodeUint64()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

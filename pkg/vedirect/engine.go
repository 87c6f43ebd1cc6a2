// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import "time"

// Transport is the byte-level access the engine needs from the shared UART.
// ReadByte must not block: it returns ok=false when no byte is currently
// available. Writes go straight to the line; there is no outbound queue.
type Transport interface {
	ReadByte() (byte, bool)
	Write(p []byte) (int, error)
}

// Options is the caller-owned configuration surface of the engine.
// Zero values select the SmartShunt defaults.
type Options struct {
	ProductID    uint16
	AppID        uint16
	DeviceName   string
	SerialNumber string
	ModelTag     string
	MonitorType  string

	TextInterval time.Duration
	HistoryEvery int
	HexTimeout   time.Duration
}

func (o *Options) applyDefaults() {
	if o.ProductID == 0 {
		o.ProductID = DefaultProductID
	}
	if o.AppID == 0 {
		o.AppID = DefaultAppID
	}
	if o.DeviceName == "" {
		o.DeviceName = DefaultDeviceName
	}
	if o.SerialNumber == "" {
		o.SerialNumber = DefaultSerialNumber
	}
	if o.ModelTag == "" {
		o.ModelTag = DefaultModelTag
	}
	if o.MonitorType == "" {
		o.MonitorType = DefaultMonitorType
	}
	if o.TextInterval <= 0 {
		o.TextInterval = DefaultTextInterval
	}
	if o.HistoryEvery <= 0 {
		o.HistoryEvery = DefaultHistoryEvery
	}
	if o.HexTimeout <= 0 {
		o.HexTimeout = DefaultHexTimeout
	}
}

type handlerFunc func(e *Engine, f *HexFrame) []byte

// Engine is the VE.Direct protocol engine: the Hex receive state machine,
// its command dispatch, the Text frame generator and the pacing that
// arbitrates the two sub-protocols on the shared half-duplex line.
//
// The engine owns all state that survives across pumps (partial frame,
// identity registers, pacing timestamps). It is single-threaded and polled:
// call Pump frequently from one goroutine with a fresh snapshot and the
// current time.
type Engine struct {
	opts Options
	tr   Transport
	dec  *Decoder
	regs *Registers
	text *TextBuilder

	enabled     bool
	lastText    time.Time
	lastHistory time.Time
	lastHex     time.Time

	handlers map[Command]handlerFunc
}

// New creates an engine bound to the given transport.
func New(tr Transport, opts Options) *Engine {
	opts.applyDefaults()

	dec := NewDecoder()
	dec.Timeout = opts.HexTimeout

	e := &Engine{
		opts:    opts,
		tr:      tr,
		dec:     dec,
		regs:    NewRegisters(opts.SerialNumber, opts.DeviceName),
		enabled: true,
		text: &TextBuilder{
			ProductID:   opts.ProductID,
			AppID:       opts.AppID,
			ModelTag:    opts.ModelTag,
			MonitorType: opts.MonitorType,
		},
	}
	e.handlers = map[Command]handlerFunc{
		CmdPing:       (*Engine).answerPing,
		CmdAppVersion: (*Engine).answerAppVersion,
		CmdProductID:  (*Engine).answerProductID,
		CmdRestart:    (*Engine).answerRestart,
		CmdGet:        (*Engine).answerGet,
		CmdSet:        (*Engine).answerSet,
	}
	return e
}

// SetEnabled gates the whole subsystem. While disabled, Pump performs no
// transport I/O and advances no protocol state.
func (e *Engine) SetEnabled(enabled bool) {
	e.enabled = enabled
}

// Enabled returns the current gate state.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// Registers exposes the identity register file (for UIs showing the name the
// host configured).
func (e *Engine) Registers() *Registers {
	return e.regs
}

// Pump runs one scheduler cycle: drain the bytes currently available through
// the Hex state machine, dispatch completed commands, then emit Text frames
// if they are due and no Hex exchange is in flight. It never blocks, and with
// no new input and nothing due it performs no I/O at all.
func (e *Engine) Pump(st TelemetryState, now time.Time) error {
	if !e.enabled {
		return nil
	}
	if e.lastHistory.IsZero() {
		// The first history block waits a full period after startup.
		e.lastHistory = now
	}

	// Drain only what is available now so an inbound burst cannot starve a
	// due Text frame forever.
	for {
		b, ok := e.tr.ReadByte()
		if !ok {
			break
		}
		frame, err := e.dec.DecodeByte(b, now)
		if err != nil {
			// Framing errors drop the partial frame; the host sees no reply
			// and retries on its own schedule.
			continue
		}
		if frame != nil {
			if err := e.dispatch(frame); err != nil {
				return err
			}
			e.lastHex = now
		}
	}

	// Hex exchanges take priority on the half-duplex line: hold Text back
	// for one pacing interval after the last dispatched command.
	if !e.lastHex.IsZero() && now.Sub(e.lastHex) < e.opts.TextInterval {
		return nil
	}

	if e.lastText.IsZero() || now.Sub(e.lastText) >= e.opts.TextInterval {
		if _, err := e.tr.Write(e.text.SmallBlock(st)); err != nil {
			return err
		}
		e.lastText = now
		e.lastHex = time.Time{}

		if now.Sub(e.lastHistory) >= time.Duration(e.opts.HistoryEvery)*e.opts.TextInterval {
			if _, err := e.tr.Write(e.text.HistoryBlock(st)); err != nil {
				return err
			}
			e.lastHistory = now
		}
	}
	return nil
}

// dispatch answers one decoded command. Unrecognized ids get an explicit
// UNKNOWN answer; silence would stall the host's own state machine.
func (e *Engine) dispatch(f *HexFrame) error {
	handler, ok := e.handlers[f.Command()]
	if !ok {
		handler = (*Engine).answerUnknown
	}
	answer := handler(e, f)
	if answer == nil {
		return nil
	}
	_, err := e.tr.Write(EncodeFrame(answer))
	return err
}

func (e *Engine) answerPing(*HexFrame) []byte {
	return []byte{AnswerPing, byte(e.opts.AppID), byte(e.opts.AppID >> 8)}
}

func (e *Engine) answerAppVersion(*HexFrame) []byte {
	return []byte{AnswerDone, byte(e.opts.AppID), byte(e.opts.AppID >> 8)}
}

func (e *Engine) answerProductID(*HexFrame) []byte {
	return []byte{AnswerDone, byte(e.opts.ProductID), byte(e.opts.ProductID >> 8)}
}

// answerRestart deliberately stays silent; hosts treat the restart command
// as fire-and-forget.
func (e *Engine) answerRestart(*HexFrame) []byte {
	return nil
}

func (e *Engine) answerGet(f *HexFrame) []byte {
	answer := []byte{byte(CmdGet), byte(f.Address()), byte(f.Address() >> 8), FlagOK}
	value, ok := e.regs.Get(f.Address())
	if !ok {
		answer[3] = FlagUnknownID
		return answer
	}
	return append(answer, value...)
}

func (e *Engine) answerSet(f *HexFrame) []byte {
	answer := []byte{byte(CmdSet), byte(f.Address()), byte(f.Address() >> 8), FlagOK}
	if !e.regs.Set(f.Address(), f.Payload()) {
		answer[3] = FlagUnknownID
		return answer
	}
	return append(answer, f.Payload()...)
}

func (e *Engine) answerUnknown(f *HexFrame) []byte {
	return []byte{AnswerUnknown, byte(f.Command())}
}

// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package sink fans framed lines out to the configured sinks in a fixed order.
// A failure in one sink never stops delivery to the next.
package sink

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/outrigdev/stdiolog/pkg/bridge"
	"github.com/outrigdev/stdiolog/pkg/ds"
	"github.com/outrigdev/stdiolog/pkg/global"
	"github.com/outrigdev/stdiolog/pkg/panichandler"
	"github.com/outrigdev/stdiolog/pkg/utilfn"
)

var (
	// ErrSkipped marks a line a sink dropped on purpose (bad encoding, detached bridge)
	ErrSkipped = errors.New("line skipped")
	// ErrTerminate asks the pump to stop draining
	ErrTerminate = errors.New("sink requested termination")
)

type Sink interface {
	Name() string
	Deliver(line string) error
}

// NativeSink writes each line to the native log at Info priority
type NativeSink struct {
	Logger ds.NativeLogger
	Tag    string
	// Validate rejects messages the native log cannot represent. Defaults to ValidCString.
	Validate func(msg string) error
}

var _ Sink = (*NativeSink)(nil)

func MakeNativeSink(logger ds.NativeLogger, tag string) *NativeSink {
	return &NativeSink{Logger: logger, Tag: tag, Validate: ValidCString}
}

// ValidCString fails for strings with an interior NUL
func ValidCString(msg string) error {
	if idx := strings.IndexByte(msg, 0); idx >= 0 {
		return fmt.Errorf("nul byte at offset %d", idx)
	}
	return nil
}

func (s *NativeSink) Name() string {
	return "native"
}

func (s *NativeSink) Deliver(line string) error {
	msg := utilfn.TrimLineEnd(line)
	validate := s.Validate
	if validate == nil {
		validate = ValidCString
	}
	if err := validate(msg); err != nil {
		return fmt.Errorf("%w: %w", ErrSkipped, err)
	}
	s.Logger.Emit(ds.PriorityInfo, s.Tag, msg)
	return nil
}

// Caller is satisfied by *bridge.Handle
type Caller interface {
	Call(msg string) error
}

// BridgeSink invokes the resolved callback method with each line
type BridgeSink struct {
	Caller Caller
	Policy ds.BridgeErrorPolicy
}

var _ Sink = (*BridgeSink)(nil)

func MakeBridgeSink(caller Caller, policy ds.BridgeErrorPolicy) *BridgeSink {
	return &BridgeSink{Caller: caller, Policy: policy}
}

func (s *BridgeSink) Name() string {
	return "bridge"
}

// Deliver drops lines that cannot be encoded and lines whose context cannot be
// attached. An invocation failure follows Policy.
func (s *BridgeSink) Deliver(line string) error {
	err := s.Caller.Call(utilfn.TrimLineEnd(line))
	if err == nil {
		return nil
	}
	if errors.Is(err, bridge.ErrEncode) || errors.Is(err, bridge.ErrAttach) {
		return fmt.Errorf("%w: %w", ErrSkipped, err)
	}
	if s.Policy == ds.OnBridgeErrorTerminate {
		return fmt.Errorf("%w: %w", ErrTerminate, err)
	}
	return err
}

// SinkStats counts outcomes for one sink
type SinkStats struct {
	Name      string
	Delivered int64
	Skipped   int64
	Failed    int64
}

type sinkEntry struct {
	sink      Sink
	delivered atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

// Dispatcher holds the sink set. Fixed at construction; only the pump calls Dispatch.
type Dispatcher struct {
	entries []*sinkEntry
}

// MakeDispatcher keeps the given order; nil sinks are dropped
func MakeDispatcher(sinks ...Sink) *Dispatcher {
	d := &Dispatcher{}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		d.entries = append(d.entries, &sinkEntry{sink: s})
	}
	return d
}

func (d *Dispatcher) NumSinks() int {
	return len(d.entries)
}

// Dispatch hands line to every sink in order. It only returns an error (wrapping
// ErrTerminate) when a sink asks the pump to stop; the remaining sinks are then skipped.
func (d *Dispatcher) Dispatch(line string) error {
	for _, entry := range d.entries {
		err := entry.deliver(line)
		switch {
		case err == nil:
			entry.delivered.Add(1)
		case errors.Is(err, ErrSkipped):
			entry.skipped.Add(1)
			global.GetLogger().WithField("sink", entry.sink.Name()).Debugf("line dropped: %v", err)
		case errors.Is(err, ErrTerminate):
			entry.failed.Add(1)
			return fmt.Errorf("sink %s: %w", entry.sink.Name(), err)
		default:
			entry.failed.Add(1)
			global.GetLogger().WithField("sink", entry.sink.Name()).Debugf("delivery failed: %v", err)
		}
	}
	return nil
}

func (e *sinkEntry) deliver(line string) (rtnErr error) {
	defer func() {
		if panicErr := panichandler.PanicHandler("sink."+e.sink.Name(), recover()); panicErr != nil {
			rtnErr = panicErr
		}
	}()
	return e.sink.Deliver(line)
}

func (d *Dispatcher) Stats() []SinkStats {
	rtn := make([]SinkStats, len(d.entries))
	for i, entry := range d.entries {
		rtn[i] = SinkStats{
			Name:      entry.sink.Name(),
			Delivered: entry.delivered.Load(),
			Skipped:   entry.skipped.Load(),
			Failed:    entry.failed.Load(),
		}
	}
	return rtn
}

// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package logprocess drains the redirect channel on a dedicated goroutine,
// frames the bytes into lines and dispatches them in order.
package logprocess

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/outrigdev/stdiolog/pkg/base"
	"github.com/outrigdev/stdiolog/pkg/ds"
	"github.com/outrigdev/stdiolog/pkg/global"
	"github.com/outrigdev/stdiolog/pkg/utilfn"
)

var ErrAlreadyStarted = errors.New("pump already started")

// LineDispatcher is satisfied by *sink.Dispatcher
type LineDispatcher interface {
	Dispatch(line string) error
}

type PumpOpts struct {
	ReadSize int
	// Charset of the incoming bytes ("" => utf-8 passthrough)
	Charset   string
	SessionId string
}

// Pump owns the read end, the line buffer and the dispatcher. Nothing else touches them.
type Pump struct {
	reader     io.Reader
	dispatcher LineDispatcher
	lineBuf    *utilfn.LineBuf
	readSize   int
	decode     DecodeFn
	sessionId  string

	started atomic.Bool
	state   atomic.Int32
	lines   atomic.Int64
	done    chan struct{}

	lock    sync.Mutex // protects err and partial (written once, on termination)
	err     error
	partial []byte
}

func MakePump(r io.Reader, dispatcher LineDispatcher, opts PumpOpts) (*Pump, error) {
	decode, err := MakeDecoder(opts.Charset)
	if err != nil {
		return nil, err
	}
	readSize := opts.ReadSize
	if readSize <= 0 {
		readSize = base.DefaultReadSize
	}
	return &Pump{
		reader:     r,
		dispatcher: dispatcher,
		lineBuf:    utilfn.MakeLineBuf(),
		readSize:   readSize,
		decode:     decode,
		sessionId:  opts.SessionId,
		done:       make(chan struct{}),
	}, nil
}

// Start runs the pump on its own goroutine
func (p *Pump) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	go p.run()
	return nil
}

// Run drains on the calling goroutine until EOF (nil), a read error, or a sink
// asking to terminate. After a sink stop the remaining input is discarded until
// EOF so writers never block. It can only be called once.
func (p *Pump) Run() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	p.run()
	return p.Err()
}

func (p *Pump) run() {
	// bridge calls for every line are made from the same OS thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	logger := global.GetLogger().WithField("session", p.sessionId)
	logger.Debugf("log pump started")
	sinkStop, err := p.drain()
	p.finish(err)
	if err == nil {
		logger.Infof("log pump stopped: channel closed")
		return
	}
	logger.Warnf("log pump stopped: %v", err)
	if sinkStop {
		// Closing the read end would raise SIGPIPE in every writer (fatal for
		// fd 1/2 in Go), and not reading would eventually block them.
		_, _ = io.Copy(io.Discard, p.reader)
	}
}

// drain returns nil on EOF. sinkStop is set when a sink ended the pump.
func (p *Pump) drain() (sinkStop bool, err error) {
	buf := make([]byte, p.readSize)
	for {
		n, readErr := p.reader.Read(buf)
		if n > 0 {
			for _, line := range p.lineBuf.ProcessBuf(buf[:n]) {
				p.lines.Add(1)
				if dispatchErr := p.dispatcher.Dispatch(p.decode(line)); dispatchErr != nil {
					return true, dispatchErr
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			return false, nil
		}
		if readErr != nil {
			return false, fmt.Errorf("channel read: %w", readErr)
		}
	}
}

func (p *Pump) finish(err error) {
	p.lock.Lock()
	p.err = err
	p.partial = p.lineBuf.Partial()
	p.lock.Unlock()
	p.state.Store(int32(ds.PumpStateTerminated))
	close(p.done)
}

func (p *Pump) State() ds.PumpState {
	return ds.PumpState(p.state.Load())
}

// Done is closed once the pump has terminated
func (p *Pump) Done() <-chan struct{} {
	return p.done
}

// Err is the termination cause (nil for a clean EOF or while running)
func (p *Pump) Err() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.err
}

// Partial is the unterminated tail left in the buffer at termination
func (p *Pump) Partial() []byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]byte(nil), p.partial...)
}

// LineCount is the number of framed lines so far
func (p *Pump) LineCount() int64 {
	return p.lines.Load()
}

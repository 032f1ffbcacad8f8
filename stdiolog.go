// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package stdiolog redirects the process's stdout and stderr into a private
// pipe and forwards every line to the native log, a bridge callback, or both.
//
// Redirection happens once per process and cannot be undone.
package stdiolog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/outrigdev/stdiolog/pkg/androidlog"
	"github.com/outrigdev/stdiolog/pkg/base"
	"github.com/outrigdev/stdiolog/pkg/bridge"
	"github.com/outrigdev/stdiolog/pkg/config"
	"github.com/outrigdev/stdiolog/pkg/ds"
	"github.com/outrigdev/stdiolog/pkg/global"
	"github.com/outrigdev/stdiolog/pkg/logprocess"
	"github.com/outrigdev/stdiolog/pkg/redirect"
	"github.com/outrigdev/stdiolog/pkg/sink"
	"github.com/outrigdev/stdiolog/pkg/utilds"
	"github.com/sirupsen/logrus"
)

var ErrAlreadyInitialized = errors.New("stdiolog: already initialized")

// Re-exported so callers only need the root package for the common cases
type (
	Config        = ds.Config
	SinkSelection = ds.SinkSelection
)

const (
	NativeOnly = ds.NativeOnly
	BridgeOnly = ds.BridgeOnly
	Both       = ds.Both
)

type Options struct {
	// Config, if nil => config.DefaultConfig()
	Config *ds.Config

	// Native, if nil => androidlog.Default() (logcat on android)
	Native ds.NativeLogger

	// Bridge is required when Config.Sinks includes the bridge. It must be usable
	// from the calling thread (the thread that entered from the managed runtime).
	Bridge bridge.Bridge

	// BridgeTarget, if nil => bridge.DefaultTarget()
	BridgeTarget *bridge.Target

	// Slots are the descriptors to take over. If nil => stdout and stderr.
	Slots []int
}

// Session is the process's single redirect
type Session struct {
	id         string
	config     ds.Config
	channel    *redirect.Channel
	pump       *logprocess.Pump
	dispatcher *sink.Dispatcher
	logger     *logrus.Entry
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Config() ds.Config {
	return s.config
}

func (s *Session) State() ds.PumpState {
	return s.pump.State()
}

// Done is closed if the pump ever terminates (it normally runs until exit)
func (s *Session) Done() <-chan struct{} {
	return s.pump.Done()
}

// Err is why the pump terminated, nil while running or after a clean EOF
func (s *Session) Err() error {
	return s.pump.Err()
}

func (s *Session) Stats() []sink.SinkStats {
	return s.dispatcher.Stats()
}

func (s *Session) LineCount() int64 {
	return s.pump.LineCount()
}

// Logger writes straight to the native log under the session's tag
func (s *Session) Logger() *logrus.Entry {
	return s.logger
}

func (s *Session) Slots() []int {
	return s.channel.Slots()
}

type initGuard struct {
	lock      sync.Mutex
	attempted bool
	failure   error
	session   utilds.SetOnce[Session]
}

var processGuard = &initGuard{}

// Init takes over the standard streams and starts the log pump.
//
// Errors before the takeover (bad config, unresolvable bridge target) leave the
// process untouched and Init may be retried. Once the takeover was attempted,
// every later call returns ErrAlreadyInitialized. If the takeover itself failed
// the standard streams are in an unknown state and the caller should abort.
//
// The logging framework (androidlog.InitFramework) is set up by the first
// attempt and keeps that attempt's native logger. Session.Logger always logs
// under the tag of the session that was actually started.
func Init(opts Options) (*Session, error) {
	return processGuard.init(opts)
}

// InitNative forwards lines to the native log only. tag "" => base.DefaultTag
func InitNative(tag string) (*Session, error) {
	return Init(nativeOptions(tag))
}

// InitBridge forwards lines to the bridge callback only
func InitBridge(b bridge.Bridge) (*Session, error) {
	return Init(bridgeOptions(b))
}

// InitBoth forwards each line to the native log, then to the bridge callback
func InitBoth(tag string, b bridge.Bridge) (*Session, error) {
	return Init(bothOptions(tag, b))
}

func nativeOptions(tag string) Options {
	cfg := config.DefaultConfig()
	cfg.Tag = tag
	return Options{Config: cfg}
}

func bridgeOptions(b bridge.Bridge) Options {
	cfg := config.DefaultConfig()
	cfg.Sinks = ds.BridgeOnly
	return Options{Config: cfg, Bridge: b}
}

func bothOptions(tag string, b bridge.Bridge) Options {
	cfg := config.DefaultConfig()
	cfg.Sinks = ds.Both
	cfg.Tag = tag
	return Options{Config: cfg, Bridge: b}
}

// Current returns the running session, or nil if Init has not succeeded
func Current() *Session {
	return processGuard.session.Get()
}

func (g *initGuard) init(opts Options) (*Session, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.attempted {
		if g.failure != nil {
			return nil, fmt.Errorf("%w (previous attempt failed: %v)", ErrAlreadyInitialized, g.failure)
		}
		return nil, ErrAlreadyInitialized
	}
	cfg := config.Normalize(opts.Config)
	if _, err := logprocess.MakeDecoder(cfg.Charset); err != nil {
		return nil, err
	}
	native := opts.Native
	if native == nil {
		native = androidlog.Default()
	}
	logger := androidlog.InitFramework(native, cfg.Tag)
	global.DiagLogger.Store(logger.WithField(androidlog.TagField, base.DiagTag))

	dispatcher, err := makeDispatcher(cfg, native, opts)
	if err != nil {
		return nil, err
	}

	sessionId := uuid.New().String()
	g.attempted = true
	channel, err := redirect.Install(opts.Slots...)
	if err != nil {
		g.failure = err
		global.GetLogger().Errorf("stdio redirect failed: %v", err)
		return nil, err
	}
	pump, err := logprocess.MakePump(channel.Reader(), dispatcher, logprocess.PumpOpts{
		ReadSize:  cfg.ReadSize,
		Charset:   cfg.Charset,
		SessionId: sessionId,
	})
	if err != nil {
		g.failure = err
		return nil, err
	}
	session := &Session{
		id:         sessionId,
		config:     *cfg,
		channel:    channel,
		pump:       pump,
		dispatcher: dispatcher,
		logger:     logger.WithField(androidlog.TagField, cfg.Tag),
	}
	if err := pump.Start(); err != nil {
		g.failure = err
		return nil, err
	}
	g.session.Set(session)
	global.GetLogger().WithField("session", sessionId).Infof("stdio redirected (sinks=%s tag=%s)", cfg.Sinks, cfg.Tag)
	return session, nil
}

func makeDispatcher(cfg *ds.Config, native ds.NativeLogger, opts Options) (*sink.Dispatcher, error) {
	var sinks []sink.Sink
	if cfg.Sinks.UsesNative() {
		sinks = append(sinks, sink.MakeNativeSink(native, cfg.Tag))
	}
	if cfg.Sinks.UsesBridge() {
		if opts.Bridge == nil {
			return nil, fmt.Errorf("sink selection %q requires a bridge", cfg.Sinks)
		}
		target := bridge.DefaultTarget()
		if opts.BridgeTarget != nil {
			target = *opts.BridgeTarget
		}
		handle, err := bridge.Resolve(opts.Bridge, target)
		if err != nil {
			return nil, err
		}
		global.GetLogger().Debugf("bridge target resolved: %s", handle.Target())
		sinks = append(sinks, sink.MakeBridgeSink(handle, cfg.OnBridgeError))
	}
	dispatcher := sink.MakeDispatcher(sinks...)
	if dispatcher.NumSinks() == 0 {
		return nil, fmt.Errorf("invalid sink selection %s", cfg.Sinks)
	}
	return dispatcher, nil
}

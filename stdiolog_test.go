// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package stdiolog

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/outrigdev/stdiolog/pkg/androidlog"
	"github.com/outrigdev/stdiolog/pkg/base"
	"github.com/outrigdev/stdiolog/pkg/bridge"
	"github.com/outrigdev/stdiolog/pkg/bridge/membridge"
	"github.com/outrigdev/stdiolog/pkg/config"
	"github.com/outrigdev/stdiolog/pkg/ds"
	"github.com/outrigdev/stdiolog/pkg/sink"
	"github.com/stretchr/testify/require"
)

// recorder captures native emits and bridge calls into one ordered stream.
// Diagnostics logged under other tags are ignored.
type recorder struct {
	lock   sync.Mutex
	tag    string
	events []string
}

func (r *recorder) Emit(prio ds.Priority, tag string, msg string) {
	if tag != r.tag {
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, fmt.Sprintf("native %s %s %s", prio, tag, msg))
}

func (r *recorder) bridgeFn(msg string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, "bridge "+msg)
	return nil
}

func (r *recorder) Events() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.events...)
}

// scratchSlot stands in for stdout: a descriptor the test owns
func scratchSlot(t *testing.T) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return w
}

// closeSession closes every path to the pipe's write end so the pump sees EOF
func closeSession(t *testing.T, s *Session, slot *os.File) {
	t.Helper()
	require.NoError(t, slot.Close())
	require.NoError(t, s.channel.Close())
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pump did not stop")
	}
}

func TestInitBothScenario(t *testing.T) {
	rec := &recorder{tag: "T"}
	mb := membridge.New()
	mb.RegisterLogFn(bridge.DefaultTarget(), rec.bridgeFn)
	slot := scratchSlot(t)

	g := &initGuard{}
	s, err := g.init(Options{
		Config: &ds.Config{Sinks: ds.Both, Tag: "T"},
		Native: rec,
		Bridge: mb,
		Slots:  []int{int(slot.Fd())},
	})
	require.NoError(t, err)
	require.Equal(t, ds.PumpStateRunning, s.State())
	require.NotEmpty(t, s.Id())
	require.Same(t, s, g.session.Get())

	_, err = slot.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.Events()) == 2 }, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"native I T hello", "bridge hello"}, rec.Events())

	closeSession(t, s, slot)
	require.NoError(t, s.Err())
	require.Equal(t, ds.PumpStateTerminated, s.State())
}

func TestInitSecondCallRejected(t *testing.T) {
	rec := &recorder{tag: "T"}
	slot := scratchSlot(t)
	g := &initGuard{}
	s, err := g.init(Options{Config: &ds.Config{Tag: "T"}, Native: rec, Slots: []int{int(slot.Fd())}})
	require.NoError(t, err)

	other := scratchSlot(t)
	defer other.Close()
	_, err = g.init(Options{Config: &ds.Config{Tag: "T"}, Native: rec, Slots: []int{int(other.Fd())}})
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	closeSession(t, s, slot)
}

func TestInitBridgeMissing(t *testing.T) {
	g := &initGuard{}
	_, err := g.init(Options{Config: &ds.Config{Sinks: ds.BridgeOnly}, Native: &recorder{}})
	require.Error(t, err)
	require.False(t, g.attempted, "no takeover may happen without a bridge")
}

func TestInitUnresolvableTargetCanRetry(t *testing.T) {
	rec := &recorder{tag: "T"}
	mb := membridge.New()
	g := &initGuard{}
	slot := scratchSlot(t)

	_, err := g.init(Options{Config: &ds.Config{Sinks: ds.Both, Tag: "T"}, Native: rec, Bridge: mb, Slots: []int{int(slot.Fd())}})
	require.ErrorIs(t, err, bridge.ErrResolve)
	require.False(t, g.attempted)

	mb.RegisterLogFn(bridge.DefaultTarget(), rec.bridgeFn)
	s, err := g.init(Options{Config: &ds.Config{Sinks: ds.Both, Tag: "T"}, Native: rec, Bridge: mb, Slots: []int{int(slot.Fd())}})
	require.NoError(t, err)
	closeSession(t, s, slot)
}

func TestInitRetryLogsUnderRetryTag(t *testing.T) {
	g := &initGuard{}
	_, err := g.init(Options{Config: &ds.Config{Sinks: ds.Both, Tag: "A"}, Native: &recorder{}})
	require.Error(t, err)

	slot := scratchSlot(t)
	s, err := g.init(Options{Config: &ds.Config{Tag: "B"}, Native: &recorder{tag: "B"}, Slots: []int{int(slot.Fd())}})
	require.NoError(t, err)
	require.Equal(t, "B", s.Config().Tag)
	require.Equal(t, "B", s.Logger().Data[androidlog.TagField])
	closeSession(t, s, slot)
}

func TestInitWrapperOptions(t *testing.T) {
	mb := membridge.New()
	tests := []struct {
		name      string
		opts      Options
		wantSinks ds.SinkSelection
		wantTag   string
		hasBridge bool
	}{
		{"native", nativeOptions("N"), ds.NativeOnly, "N", false},
		{"native-default-tag", nativeOptions(""), ds.NativeOnly, base.DefaultTag, false},
		{"bridge", bridgeOptions(mb), ds.BridgeOnly, base.DefaultTag, true},
		{"both", bothOptions("B", mb), ds.Both, "B", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.opts.Config)
			cfg := config.Normalize(tt.opts.Config)
			require.Equal(t, tt.wantSinks, cfg.Sinks)
			require.Equal(t, tt.wantTag, cfg.Tag)
			require.Equal(t, ds.OnBridgeErrorIgnore, cfg.OnBridgeError)
			if tt.hasBridge {
				require.Same(t, mb, tt.opts.Bridge)
			} else {
				require.Nil(t, tt.opts.Bridge)
			}
			require.Nil(t, tt.opts.Slots)
			require.Nil(t, tt.opts.BridgeTarget)
		})
	}
}

func TestInitBadCharset(t *testing.T) {
	g := &initGuard{}
	_, err := g.init(Options{Config: &ds.Config{Charset: "nope-13"}, Native: &recorder{}})
	require.Error(t, err)
	require.False(t, g.attempted)
}

func TestInitInstallFailureIsSticky(t *testing.T) {
	g := &initGuard{}
	_, err := g.init(Options{Config: &ds.Config{Tag: "T"}, Native: &recorder{tag: "T"}, Slots: []int{-1}})
	require.Error(t, err)
	require.True(t, g.attempted)

	_, err = g.init(Options{Config: &ds.Config{Tag: "T"}, Native: &recorder{tag: "T"}, Slots: []int{-1}})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.Contains(t, err.Error(), "previous attempt failed")
}

func TestNativeRejectStillReachesBridge(t *testing.T) {
	rec := &recorder{tag: "T"}
	mb := membridge.New()
	mb.RegisterLogFn(bridge.DefaultTarget(), rec.bridgeFn)
	slot := scratchSlot(t)
	g := &initGuard{}
	s, err := g.init(Options{
		Config: &ds.Config{Sinks: ds.Both, Tag: "T"},
		Native: rec,
		Bridge: mb,
		Slots:  []int{int(slot.Fd())},
	})
	require.NoError(t, err)

	_, err = slot.Write([]byte("nul\x00byte\nplain\n"))
	require.NoError(t, err)
	closeSession(t, s, slot)

	require.Equal(t, []string{"bridge nul\x00byte", "native I T plain", "bridge plain"}, rec.Events())
	stats := s.Stats()
	require.Equal(t, sink.SinkStats{Name: "native", Delivered: 1, Skipped: 1}, stats[0])
	require.Equal(t, sink.SinkStats{Name: "bridge", Delivered: 2}, stats[1])
}

func TestBridgeTerminatePolicyStopsPump(t *testing.T) {
	rec := &recorder{tag: "T"}
	mb := membridge.New()
	boom := errors.New("callback threw")
	mb.RegisterLogFn(bridge.DefaultTarget(), func(msg string) error {
		if msg == "bad" {
			return boom
		}
		return rec.bridgeFn(msg)
	})
	slot := scratchSlot(t)
	defer slot.Close()
	g := &initGuard{}
	s, err := g.init(Options{
		Config: &ds.Config{Sinks: ds.BridgeOnly, OnBridgeError: ds.OnBridgeErrorTerminate},
		Native: rec,
		Bridge: mb,
		Slots:  []int{int(slot.Fd())},
	})
	require.NoError(t, err)

	_, err = slot.Write([]byte("ok\nbad\nnever\n"))
	require.NoError(t, err)
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pump should stop on bridge failure")
	}
	require.ErrorIs(t, s.Err(), sink.ErrTerminate)
	require.ErrorIs(t, s.Err(), boom)
	require.Equal(t, []string{"bridge ok"}, rec.Events())
}

func TestManyWritersLinesIntact(t *testing.T) {
	rec := &recorder{tag: "W"}
	slot := scratchSlot(t)
	g := &initGuard{}
	s, err := g.init(Options{Config: &ds.Config{Tag: "W"}, Native: rec, Slots: []int{int(slot.Fd())}})
	require.NoError(t, err)

	// writes below PIPE_BUF are atomic, so lines from different writers never interleave
	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, _ = fmt.Fprintf(slot, "writer %d line %d\n", w, i)
			}
		}(w)
	}
	wg.Wait()
	closeSession(t, s, slot)

	events := rec.Events()
	require.Len(t, events, writers*perWriter)
	next := make(map[int]int)
	for _, ev := range events {
		var w, i int
		_, err := fmt.Sscanf(ev, "native I W writer %d line %d", &w, &i)
		require.NoError(t, err, ev)
		require.Equal(t, next[w], i, "per-writer order")
		next[w]++
	}
	require.EqualValues(t, writers*perWriter, s.LineCount())
}

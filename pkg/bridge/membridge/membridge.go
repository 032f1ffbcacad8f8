// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package membridge is an in-process bridge.Bridge: singletons and methods are
// Go values registered up front. Used by the demo CLI and by tests.
package membridge

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unicode/utf16"

	"github.com/outrigdev/stdiolog/pkg/bridge"
)

var ErrReleased = errors.New("context already released")

// MethodFn receives the string arguments of a call
type MethodFn func(args []string) error

type method struct {
	class string
	name  string
	sig   string
	fn    MethodFn
}

type MemBridge struct {
	lock       sync.Mutex
	nextRef    uintptr
	singletons map[string]bridge.Ref // class + "." + field
	instances  map[bridge.Ref]string // ref -> class
	methods    map[bridge.MethodID]*method

	// AttachFn, if set, is consulted on every AcquireContext; a non-nil error fails the attach
	AttachFn func() error

	Attaches atomic.Int64
	Releases atomic.Int64
}

func New() *MemBridge {
	return &MemBridge{
		nextRef:    1,
		singletons: make(map[string]bridge.Ref),
		instances:  make(map[bridge.Ref]string),
		methods:    make(map[bridge.MethodID]*method),
	}
}

func singletonKey(className string, fieldName string) string {
	return className + "." + fieldName
}

// Register installs a singleton for target.Class/target.Field and binds target.Method to fn
func (m *MemBridge) Register(target bridge.Target, fn MethodFn) {
	m.lock.Lock()
	defer m.lock.Unlock()
	key := singletonKey(target.Class, target.Field)
	if _, ok := m.singletons[key]; !ok {
		ref := bridge.Ref(m.nextRef)
		m.nextRef++
		m.singletons[key] = ref
		m.instances[ref] = target.Class
	}
	id := bridge.MethodID(m.nextRef)
	m.nextRef++
	m.methods[id] = &method{class: target.Class, name: target.Method, sig: target.MethodSig, fn: fn}
}

// RegisterLogFn registers a single-String callback on target
func (m *MemBridge) RegisterLogFn(target bridge.Target, fn func(msg string) error) {
	m.Register(target, func(args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return fn(args[0])
	})
}

func (m *MemBridge) ResolveSingleton(className string, fieldName string, fieldSig string) (bridge.Ref, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	ref, ok := m.singletons[singletonKey(className, fieldName)]
	if !ok {
		return 0, fmt.Errorf("no static field %s.%s (%s)", className, fieldName, fieldSig)
	}
	return ref, nil
}

func (m *MemBridge) ResolveMethod(className string, methodName string, methodSig string) (bridge.MethodID, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for id, meth := range m.methods {
		if meth.class == className && meth.name == methodName && meth.sig == methodSig {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no method %s.%s%s", className, methodName, methodSig)
}

func (m *MemBridge) AcquireContext() (bridge.Context, error) {
	if m.AttachFn != nil {
		if err := m.AttachFn(); err != nil {
			return nil, err
		}
	}
	m.Attaches.Add(1)
	return &memContext{bridge: m, strings: make(map[bridge.Ref]string)}, nil
}

type memContext struct {
	bridge   *MemBridge
	nextRef  uintptr
	strings  map[bridge.Ref]string
	released bool
}

// string refs live in the high half so they never collide with instance refs
const localRefBase = 1 << 30

func (c *memContext) NewString(chars []uint16) (bridge.Ref, error) {
	if c.released {
		return 0, ErrReleased
	}
	c.nextRef++
	ref := bridge.Ref(localRefBase + c.nextRef)
	c.strings[ref] = string(utf16.Decode(chars))
	return ref, nil
}

func (c *memContext) CallVoidMethod(instance bridge.Ref, methodID bridge.MethodID, args ...bridge.Ref) error {
	if c.released {
		return ErrReleased
	}
	c.bridge.lock.Lock()
	meth, ok := c.bridge.methods[methodID]
	class := c.bridge.instances[instance]
	c.bridge.lock.Unlock()
	if !ok {
		return fmt.Errorf("invalid method id %d", methodID)
	}
	if class != meth.class {
		return fmt.Errorf("instance %d is not a %s", instance, meth.class)
	}
	strArgs := make([]string, len(args))
	for i, arg := range args {
		str, ok := c.strings[arg]
		if !ok {
			return fmt.Errorf("argument %d is not a live string ref", i)
		}
		strArgs[i] = str
	}
	return meth.fn(strArgs)
}

func (c *memContext) Release() {
	if c.released {
		return
	}
	c.released = true
	c.strings = nil
	c.bridge.Releases.Add(1)
}

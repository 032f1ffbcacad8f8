// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package bridge describes the cross-runtime call capability used by the
// callback sink, and resolves the callback target once at init.
package bridge

import (
	"errors"
	"fmt"

	"github.com/outrigdev/stdiolog/pkg/base"
)

var (
	ErrResolve = errors.New("bridge resolve failed")
	ErrAttach  = errors.New("bridge attach failed")
	ErrEncode  = errors.New("bridge string encoding failed")
	ErrInvoke  = errors.New("bridge invoke failed")
)

// Ref is an opaque object handle valid across threads (a JNI global ref, for example)
type Ref uintptr

// MethodID is an opaque method handle
type MethodID uintptr

// Bridge resolves targets on the initializing thread and hands out
// per-call contexts on any thread.
type Bridge interface {
	// ResolveSingleton returns a stable reference to a static singleton field
	ResolveSingleton(className string, fieldName string, fieldSig string) (Ref, error)
	ResolveMethod(className string, methodName string, methodSig string) (MethodID, error)
	// AcquireContext attaches the calling thread if needed. The context is only
	// valid on the calling goroutine until Release.
	AcquireContext() (Context, error)
}

type Context interface {
	// NewString makes a bridge string from UTF-16 code units, valid until Release
	NewString(chars []uint16) (Ref, error)
	CallVoidMethod(instance Ref, method MethodID, args ...Ref) error
	Release()
}

// Target names the singleton instance and the single-String, void method to call
type Target struct {
	Class     string
	Field     string
	FieldSig  string
	Method    string
	MethodSig string
}

func DefaultTarget() Target {
	return Target{
		Class:     base.DefaultBridgeClass,
		Field:     base.DefaultBridgeField,
		FieldSig:  base.DefaultBridgeFieldSig,
		Method:    base.DefaultBridgeMethod,
		MethodSig: base.DefaultBridgeMethodSig,
	}
}

func (t Target) String() string {
	return fmt.Sprintf("%s.%s#%s%s", t.Class, t.Field, t.Method, t.MethodSig)
}

// Handle is a resolved target. Immutable, safe to share with the pump.
type Handle struct {
	bridge   Bridge
	target   Target
	instance Ref
	method   MethodID
}

// Resolve looks up the instance and method. Must run on a thread that already
// has bridge access (the thread that called into the library).
func Resolve(b Bridge, target Target) (*Handle, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: no bridge provided", ErrResolve)
	}
	instance, err := b.ResolveSingleton(target.Class, target.Field, target.FieldSig)
	if err != nil {
		return nil, fmt.Errorf("%w: singleton %s.%s: %w", ErrResolve, target.Class, target.Field, err)
	}
	method, err := b.ResolveMethod(target.Class, target.Method, target.MethodSig)
	if err != nil {
		return nil, fmt.Errorf("%w: method %s.%s%s: %w", ErrResolve, target.Class, target.Method, target.MethodSig, err)
	}
	return &Handle{
		bridge:   b,
		target:   target,
		instance: instance,
		method:   method,
	}, nil
}

func (h *Handle) Target() Target {
	return h.target
}

// Call invokes the target method with msg. A fresh context is acquired for
// every call; the pump's thread is not the one that resolved the handle.
func (h *Handle) Call(msg string) error {
	chars, err := EncodeUTF16(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	ctx, err := h.bridge.AcquireContext()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAttach, err)
	}
	defer ctx.Release()
	str, err := ctx.NewString(chars)
	if err != nil {
		return fmt.Errorf("%w: new string: %w", ErrInvoke, err)
	}
	err = ctx.CallVoidMethod(h.instance, h.method, str)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvoke, h.target.Method, err)
	}
	return nil
}

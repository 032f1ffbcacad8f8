// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package ds

import (
	"fmt"
	"strings"
)

// SinkSelection picks which sinks receive redirected lines
type SinkSelection int

const (
	NativeOnly SinkSelection = iota
	BridgeOnly
	Both
)

var sinkSelectionNames = map[SinkSelection]string{
	NativeOnly: "native",
	BridgeOnly: "bridge",
	Both:       "both",
}

func (s SinkSelection) String() string {
	if name, ok := sinkSelectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SinkSelection(%d)", int(s))
}

func (s SinkSelection) UsesNative() bool {
	return s == NativeOnly || s == Both
}

func (s SinkSelection) UsesBridge() bool {
	return s == BridgeOnly || s == Both
}

func (s SinkSelection) MarshalText() ([]byte, error) {
	name, ok := sinkSelectionNames[s]
	if !ok {
		return nil, fmt.Errorf("invalid sink selection %d", int(s))
	}
	return []byte(name), nil
}

func (s *SinkSelection) UnmarshalText(text []byte) error {
	val, err := ParseSinkSelection(string(text))
	if err != nil {
		return err
	}
	*s = val
	return nil
}

// ParseSinkSelection accepts "native", "bridge" or "both" (case-insensitive)
func ParseSinkSelection(str string) (SinkSelection, error) {
	lower := strings.ToLower(strings.TrimSpace(str))
	for sel, name := range sinkSelectionNames {
		if name == lower {
			return sel, nil
		}
	}
	return NativeOnly, fmt.Errorf("unknown sink selection %q (want native, bridge or both)", str)
}

// BridgeErrorPolicy decides what a failed bridge invocation does to the pump
type BridgeErrorPolicy int

const (
	// OnBridgeErrorIgnore drops the line for the bridge sink and keeps draining
	OnBridgeErrorIgnore BridgeErrorPolicy = iota
	// OnBridgeErrorTerminate stops the pump on the first failed invocation
	OnBridgeErrorTerminate
)

func (p BridgeErrorPolicy) String() string {
	switch p {
	case OnBridgeErrorIgnore:
		return "ignore"
	case OnBridgeErrorTerminate:
		return "terminate"
	}
	return fmt.Sprintf("BridgeErrorPolicy(%d)", int(p))
}

func (p BridgeErrorPolicy) MarshalText() ([]byte, error) {
	switch p {
	case OnBridgeErrorIgnore, OnBridgeErrorTerminate:
		return []byte(p.String()), nil
	}
	return nil, fmt.Errorf("invalid bridge error policy %d", int(p))
}

func (p *BridgeErrorPolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "ignore", "":
		*p = OnBridgeErrorIgnore
	case "terminate":
		*p = OnBridgeErrorTerminate
	default:
		return fmt.Errorf("unknown bridge error policy %q (want ignore or terminate)", string(text))
	}
	return nil
}

// Priority values match android_LogPriority so they can be passed straight to liblog
type Priority int

const (
	PriorityUnknown Priority = iota
	PriorityDefault
	PriorityVerbose
	PriorityDebug
	PriorityInfo
	PriorityWarn
	PriorityError
	PriorityFatal
	PrioritySilent
)

var priorityNames = [...]string{"UNKNOWN", "DEFAULT", "V", "D", "I", "W", "E", "F", "S"}

func (p Priority) String() string {
	if p >= 0 && int(p) < len(priorityNames) {
		return priorityNames[p]
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// NativeLogger is the platform log facility (logcat on android).
// Emit is best-effort and reports nothing back.
type NativeLogger interface {
	Emit(prio Priority, tag string, msg string)
}

// PumpState is the lifecycle of the background drain task
type PumpState int32

const (
	PumpStateRunning PumpState = iota
	PumpStateTerminated
)

func (s PumpState) String() string {
	if s == PumpStateRunning {
		return "running"
	}
	return "terminated"
}

// Config holds the serializable redirect options.
// Capabilities (native logger, bridge) are passed separately to Init since
// they cannot come from a config file.
type Config struct {
	// Sinks selects native log, bridge callback, or both
	Sinks SinkSelection `json:"sinks"`

	// Tag is the native log tag. If "" => base.DefaultTag
	Tag string `json:"tag,omitempty"`

	// OnBridgeError controls whether a failed bridge call stops the pump
	OnBridgeError BridgeErrorPolicy `json:"onbridgeerror"`

	// Charset names the encoding the process writes in (htmlindex names, e.g. "latin1").
	// If "" or "utf-8" => bytes are passed through.
	Charset string `json:"charset,omitempty"`

	// ReadSize is the channel read chunk size. If 0 => base.DefaultReadSize
	ReadSize int `json:"readsize,omitempty"`
}

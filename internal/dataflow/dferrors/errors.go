// Package dferrors collects the sentinel errors and wrapper types shared
// across the dataflow runtime, matching spec §7's error taxonomy.
package dferrors

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/signalgraph/internal/dataflow/port"
)

var (
	// Cancelled identifies a scheduled task that was cancelled before it
	// ran (C1). Nothing in the runtime returns it: the schedulers skip a
	// cancelled task without calling it.
	Cancelled = errors.New("dataflow: task cancelled")

	// IncompatibleMetadata is port.ErrIncompatibleMetadata, re-exported
	// so pipeline-level callers can match it with errors.Is without
	// importing port directly. port.Connect returns it at connect time
	// (C4); Input.Push returns the same sentinel at runtime when a
	// packet's stream type no longer matches what was negotiated (C4/§7).
	IncompatibleMetadata = port.ErrIncompatibleMetadata

	// UnknownModule is returned by a Factory when asked to instantiate a
	// name that was never registered (C7).
	UnknownModule = errors.New("dataflow: unknown module")

	// DuplicateRegistration is returned when a module name is
	// registered twice (C7).
	DuplicateRegistration = errors.New("dataflow: duplicate module registration")

	// StillConnected is returned by Pipeline.RemoveModule when the
	// module still has live connections (C6).
	StillConnected = errors.New("dataflow: module still has connections")

	// ConnectionNotFound is returned by Pipeline.Disconnect when the
	// requested edge does not exist (C6).
	ConnectionNotFound = errors.New("dataflow: connection not found")

	// LateData marks a packet that arrived with its DecodingTime already
	// past; logged at Warning by the regulator, the packet is still
	// emitted (C8).
	LateData = errors.New("dataflow: late data")
)

// ModuleError wraps an error raised during a module's Process/Flush with
// the module's identity, the context Pipeline attaches before propagating
// it to waitForCompletion (spec §4.5 "Failure").
type ModuleError struct {
	ModuleName string
	Err        error
}

// Error implements error.
func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s: %v", e.ModuleName, e.Err)
}

// Unwrap returns the underlying error.
func (e *ModuleError) Unwrap() error {
	return e.Err
}

// NewModuleError wraps err with the failing module's name.
func NewModuleError(moduleName string, err error) *ModuleError {
	return &ModuleError{ModuleName: moduleName, Err: err}
}

// ConnectionError wraps a failed Pipeline.Connect/Disconnect call with the
// endpoints involved.
type ConnectionError struct {
	Src, Dst string
	Err      error
}

// Error implements error.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s -> %s: %v", e.Src, e.Dst, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError wraps err with the endpoints of a failed connect.
func NewConnectionError(src, dst string, err error) *ConnectionError {
	return &ConnectionError{Src: src, Dst: dst, Err: err}
}

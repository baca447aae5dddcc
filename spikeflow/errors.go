// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import "fmt"

// ConfigError reports an invalid network specification: bad shapes,
// unknown layer references, out-of-range parameters, or a synapse delay
// exceeding the history depth.  Construction and Build surface these
// instead of panicking.
type ConfigError struct {

	// Op is the operation that detected the problem, e.g. "Build"
	Op string

	// Item names the offending element (layer, pathway, param)
	Item string

	// Msg describes what is wrong
	Msg string
}

func (e *ConfigError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("[config] %s: %s: %s", e.Op, e.Item, e.Msg)
	}
	return fmt.Sprintf("[config] %s: %s", e.Op, e.Msg)
}

// ConfigErrorf creates a ConfigError with a formatted message
func ConfigErrorf(op, item, format string, args ...any) *ConfigError {
	return &ConfigError{Op: op, Item: item, Msg: fmt.Sprintf(format, args...)}
}

// IntegrityError reports a structural edit batch that would leave the
// network inconsistent: dangling synapse endpoints, duplicate
// connections, or removal of a referenced element.  The batch that
// caused it is rejected as a whole.
type IntegrityError struct {

	// Op is the operation that detected the problem, e.g. "ApplyEdits"
	Op string

	// Item names the offending element
	Item string

	// Msg describes the violated invariant
	Msg string
}

func (e *IntegrityError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("[integrity] %s: %s: %s", e.Op, e.Item, e.Msg)
	}
	return fmt.Sprintf("[integrity] %s: %s", e.Op, e.Msg)
}

// IntegrityErrorf creates an IntegrityError with a formatted message
func IntegrityErrorf(op, item, format string, args ...any) *IntegrityError {
	return &IntegrityError{Op: op, Item: item, Msg: fmt.Sprintf(format, args...)}
}

// NumericError reports a non-finite value produced during integration
// (NaN or Inf in a neuron state variable): the step that produced it
// fails rather than silently propagating the value.
type NumericError struct {

	// Layer is the name of the layer containing the bad value
	Layer string

	// Neuron is the flat index of the neuron within the layer
	Neuron int

	// Step is the timestep at which the value was detected
	Step int
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("[numeric] layer %s neuron %d: non-finite state at step %d", e.Layer, e.Neuron, e.Step)
}

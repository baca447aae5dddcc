// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

// PathTypes enumerates the topological roles of a pathway.
// All types use the same synapse mechanics; the type determines the
// sign of the delivered input and documents the pathway's place in the
// network graph.
type PathTypes int32

// The pathway types
const (
	// ForwardPath is a feed-forward pathway from a lower to the next
	// higher layer in the layer ordering.
	ForwardPath PathTypes = iota

	// RecurrentPath connects a layer to itself or to an earlier layer
	// in the ordering, forming a cycle.  Reads come from committed
	// spike history, so cycles are well defined.
	RecurrentPath

	// SkipPath is a feed-forward pathway that bypasses one or more
	// intermediate layers.
	SkipPath

	// InhibPath is an inhibitory pathway: its delivered contribution
	// is subtracted from the receiver's input current.  Weights remain
	// non-negative; the sign lives on the pathway.
	InhibPath

	PathTypesN
)

var pathTypeNames = [...]string{"Forward", "Recurrent", "Skip", "Inhib"}

func (pt PathTypes) String() string {
	if pt < 0 || pt >= PathTypesN {
		return "PathTypesInvalid"
	}
	return pathTypeNames[pt]
}

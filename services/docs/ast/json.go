// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref holds a child node so that it survives a JSON round trip.
//
// Description:
//
//	Fields typed as the Node interface cannot be decoded by encoding/json
//	because the concrete type is unknown. Ref marshals as the node itself
//	(or null) and decodes by dispatching on the "type" discriminator.
type Ref struct {
	Node
}

// Wrap returns a Ref holding n.
func Wrap(n Node) Ref {
	return Ref{Node: n}
}

// IsZero reports whether the Ref holds no node. Used by `omitzero`.
func (r Ref) IsZero() bool {
	return r.Node == nil
}

// MarshalJSON encodes the held node, or null.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Node == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.Node)
}

// UnmarshalJSON decodes a node by its discriminator.
func (r *Ref) UnmarshalJSON(data []byte) error {
	n, err := Decode(data)
	if err != nil {
		return err
	}
	r.Node = n
	return nil
}

// Decode parses one serialized node.
//
// Inputs:
//
//	data - JSON object with a "type" field, or the literal null.
//
// Outputs:
//
//	Node - The decoded node; nil for null. Kinds this package does not
//	       model decode to *Unknown with NodeType set to the kind.
//	error - Non-nil if data is not a JSON object or a field fails to decode.
func Decode(data []byte) (Node, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || len(trimmed) == 0 {
		return nil, nil
	}

	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return nil, fmt.Errorf("decoding node header: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("decoding node: missing type discriminator")
	}

	factory, ok := factories[head.Type]
	if !ok {
		u := &Unknown{NodeType: string(head.Type)}
		u.Type = KindUnknown
		return u, nil
	}

	n := factory()
	if err := json.Unmarshal(trimmed, n); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", head.Type, err)
	}
	return n, nil
}

// Refs wraps each node in a Ref.
func Refs(nodes []Node) []Ref {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Ref, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Wrap(n))
	}
	return out
}

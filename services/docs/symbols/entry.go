// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symbols

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Khan/docuflow/services/docs/ast"
)

// ImportRef says a local binding is the export Imported of file Source.
type ImportRef struct {
	// Source is the resolved path of the exporting file, or the bare
	// specifier for modules outside the analysis roots.
	Source string `json:"source"`

	// Imported is the exported name. "default" for default imports and
	// "*" for namespace imports.
	Imported string `json:"imported"`
}

// IsNamespace reports whether the import binds a whole module object.
func (r ImportRef) IsNamespace() bool {
	return r.Imported == "*"
}

// Entry is one exported symbol: either a declaration node held directly or
// an alias naming a local binding of the same file.
//
// Description:
//
//	An Entry serializes as the node itself when direct and as a JSON string
//	when it is an alias, so consumers can tell the two apart by JSON type.
type Entry struct {
	node  ast.Node
	local string
}

// Direct returns an entry holding a declaration node.
func Direct(n ast.Node) Entry {
	return Entry{node: n}
}

// Alias returns an entry naming the local binding that holds the value.
func Alias(local string) Entry {
	return Entry{local: local}
}

// IsAlias reports whether the entry names a local binding.
func (e Entry) IsAlias() bool {
	return e.node == nil
}

// Node returns the declaration of a direct entry; nil for aliases.
func (e Entry) Node() ast.Node {
	return e.node
}

// Local returns the local binding name of an alias; "" for direct entries.
func (e Entry) Local() string {
	return e.local
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.IsAlias() {
		return json.Marshal(e.local)
	}
	return json.Marshal(e.node)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var local string
		if err := json.Unmarshal(trimmed, &local); err != nil {
			return fmt.Errorf("decoding alias entry: %w", err)
		}
		*e = Alias(local)
		return nil
	}
	n, err := ast.Decode(trimmed)
	if err != nil {
		return fmt.Errorf("decoding direct entry: %w", err)
	}
	if n == nil {
		return fmt.Errorf("decoding direct entry: null declaration")
	}
	*e = Direct(n)
	return nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func listPackagesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_packages",
		Description: "List the documented packages",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func getPackageTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_package",
		Description: "Get the resolved exports and reachable files of a package",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Package name from package.json, e.g. @khanacademy/wonder-blocks-core",
				},
			},
			Required: []string{"name"},
		},
	}
}

func getComponentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_components",
		Description: "Describe the React component classes a package exports: props type and default props",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Package name from package.json",
				},
			},
			Required: []string{"name"},
		},
	}
}

func getFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_file",
		Description: "Get the symbol table of one documented file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of the file as recorded in the document",
				},
			},
			Required: []string{"path"},
		},
	}
}

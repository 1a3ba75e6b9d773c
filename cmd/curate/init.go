package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dusk-indust/curate/internal/scaffold"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// curateMCPEntry is the MCP server configuration for the curate binary.
var curateMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "curate",
  "args": ["--serve-mcp"]
}`)

// runInit writes a starter project and the MCP configuration into the
// project directory.
func runInit(w io.Writer, projectRoot string, force bool) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}

	results, err := scaffold.Install(abs, force)
	if err != nil {
		return fmt.Errorf("copying project files: %w", err)
	}
	for _, r := range results {
		if r.Written {
			fmt.Fprintf(w, "  created ./%s\n", r.Path)
		} else {
			fmt.Fprintf(w, "  skipped ./%s (exists, use --force to overwrite)\n", r.Path)
		}
	}

	if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSetup complete. Try 'curate status' and 'curate merge'.")
	return nil
}

// mergeMCPConfig creates or merges the curate entry into .mcp.json.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["curate"]; exists && !force {
		fmt.Fprintf(w, "  skipped .mcp.json curate entry (exists, use --force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["curate"] = curateMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with curate MCP server\n", action)
	return nil
}

// Package config provides the configuration for keyfind.
//
// Settings are layered, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← applied by the caller
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← KEYFIND_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← --config, ./.keyfind.toml, ~/.config/keyfind/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │
//	└─────────────────────────────┘
//
// Files may be TOML or YAML. Each layer is read into a map by the loader
// package, the maps are deep-merged and the result is decoded once into a
// Config, rejecting unknown keys.
//
// # Basic Usage
//
//	cfg, err := config.Load(config.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//	opts := cfg.ScanOptions()
//
// # Example File
//
//	[search]
//	recurse = true
//	pollInterval = "100ms"
//	excludeDirs = [".git", "node_modules", "vendor"]
//
//	[logging]
//	level = "info"
//
//	[[fileTypes]]
//	name = "Proto"
//	patterns = ["*.proto"]
package config

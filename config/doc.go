// Package config provides configuration structures for the hub, its HTTP
// server, logging, and the message archive.
//
// Every section has a DefaultXConfig constructor and a Merge method. Loaded
// configuration merges over the defaults so files only need to name what
// they change:
//
//	cfg, err := config.LoadConfig("agentcomm.yaml")
//	if err != nil {
//	    return err
//	}
//	h, err := hub.New(cfg.Hub)
//
// # Sources
//
// LoadConfig reads JSON (.json) or YAML (.yaml, .yml), merges it over
// DefaultConfig, then applies AGENTCOMM_* environment variables. The
// environment always wins over the file.
//
// # Merge semantics
//
//   - Strings: Merge if source is non-empty
//   - Durations: Merge if source is greater than zero
//   - Pointers: Merge if source is non-nil
//   - Nested configs: Recursive merge
//
// Configuration only exists during initialization. Validation happens at
// the point of use (hub.New, archive.NewStore, observability.NewLogger).
package config

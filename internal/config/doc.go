// Package config provides configuration parsing for hookbind programs.
//
// The configuration is stored in hookbind.yaml in the working directory.
// A missing file is not an error: every field has a default.
//
// # Configuration File Structure
//
//	debug: false
//	log:
//	  level: info        # debug, info, warn, error
//	  format: text       # text or json
//	inspect:
//	  addr: 127.0.0.1:7070
//	  allowed_origins:
//	    - http://localhost:3000
//	metrics:
//	  namespace: hookbind
//	tracing:
//	  enabled: false
//	  tracer_name: hookbind
//	bench:
//	  stores: 8
//	  bindings: 64
//	  writes: 10000
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.NewLogger(os.Stderr)
package config

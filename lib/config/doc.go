// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration of the tango CLI.
//
// The file comes from exactly one place: the --config flag, or else
// the TANGO_CLIENT_CONFIG environment variable. With neither set,
// [Default] is used as is. There is no search of home or system
// directories.
//
// ${VAR} and ${VAR:-default} are expanded in path fields after
// loading. Environment variables never override a configured value
// any other way.
//
//	library: simulated
//	fixtures: ${HOME}/tango/motors.jsonc
//	database: ${TANGO_STATE:-/var/tmp}/properties.db
//	timeout: 3s
//	source: CACHE_DEV
//	heap_size: 1048576
//	snapshot:
//	  compression: zstd
//	  interval: 1s
//	log:
//	  level: info
//
// This package depends on no other packages of this module.
package config

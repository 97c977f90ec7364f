// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/ot/config.cue (~/.config/ot/config.cue
// when unset), then from ./config.cue, and finally falls back to defaults. OT_*
// environment variables override file values; nested keys use underscores
// (OT_EXEC_TIMEOUT for exec.timeout).
//
// Files are validated against the embedded config_schema.cue before they are merged.
package config

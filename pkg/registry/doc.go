// SPDX-License-Identifier: MPL-2.0

// Package registry maps command templates to their inverse templates.
//
// A registry is built once from a list of (forward, inverse) pairs and
// is read-only afterwards. Lookups work from either side: the forward
// template of a pair resolves to its inverse and the inverse resolves
// back to the forward template. A separate set flags templates whose
// output ends with a newline that the command added itself and that
// must be removed before the output is treated as operator content.
//
// Registries are loaded from CUE, YAML or TOML documents with the shape
//
//	commands: { "gzip -c": "gunzip -c" }
//	nl_adders: ["sha256sum"]
//
// Default returns the registry embedded in the binary.
package registry

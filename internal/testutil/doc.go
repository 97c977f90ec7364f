// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Helpers cover environment isolation (MustSetenv, MustUnsetenv, SetHomeDir,
// IsolateEnv), file fixtures (MustWriteFile, MustReadFile) and skipping tests
// whose external tools are missing (RequireCommands).
package testutil

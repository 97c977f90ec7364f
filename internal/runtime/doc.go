// SPDX-License-Identifier: MPL-2.0

// Package runtime runs concrete operator commands as stdin-to-stdout transforms.
//
// Two runners are available:
//   - native: hands the command line to the host shell (sh -c, bash -c, ...)
//   - virtual: interprets the command line with the embedded mvdan/sh interpreter,
//     which still executes external programs but does not need a host shell
//
// Every runner writes the request payload to the command's standard input,
// closes it after the last byte and captures standard output in full. A
// non-zero exit status is reported in Result.ExitCode, not as an error;
// errors are reserved for commands that could not be started or whose
// pipes failed. Deadline wraps a runner with an optional timeout.
package runtime

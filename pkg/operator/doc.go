// SPDX-License-Identifier: MPL-2.0

// Package operator implements reversible operators over external commands.
//
// An Operator is a command template, the arguments that fill its
// placeholders and the content fed to the command. Executing it pipes
// the content through the concrete command and captures the output.
// Serializing it executes the command and records the *counterpart*
// template from the registry together with the arguments and the
// output, so whoever reads the record later can undo the operation
// without any other context.
//
// Wire format of one record:
//
//	">><<" <template> ":" k1=v1;k2=v2 ":" <content length> ":" <content>
//
// Records may be concatenated; Decoder reads them one at a time and
// returns io.EOF once the stream is exhausted between records.
package operator

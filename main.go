// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/revops/ot/cmd/ot"

func main() {
	cmd.Execute()
}

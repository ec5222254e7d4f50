// SPDX-License-Identifier: MPL-2.0

// Command plugman reconciles a declared tree of editor plugins against an
// install root on disk.
package main

import cmd "plugman-cli/cmd/plugman"

func main() {
	cmd.Execute()
}

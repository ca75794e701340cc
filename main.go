// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/tusks/cmd/tusks"

func main() {
	cmd.Execute()
}

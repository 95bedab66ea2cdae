// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/siliconalloy/alloy/cmd/alloy"

func main() {
	cmd.Execute()
}

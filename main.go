package main

import "github.com/tigrisdata/cli/cmd"

func main() {
	cmd.Execute()
}

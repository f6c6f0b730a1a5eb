package main

import "github.com/civicpie/wardsync/cmd"

func main() {
	cmd.Execute()
}

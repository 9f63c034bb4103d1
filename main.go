package main

import "livetunnel/pkg/cmd"

func main() {
	cmd.Execute()
}

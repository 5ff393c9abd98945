package main

import "github.com/kampuskuevent/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}

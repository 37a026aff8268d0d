package main

import "github.com/Daskott/sos/cmd"

func main() {
	cmd.Execute()
}

package main

import "toolrent-cli/cmd"

func main() {
	cmd.Execute()
}

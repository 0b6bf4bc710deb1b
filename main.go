package main

import "clip-editor/cmd"

func main() {
	cmd.Execute()
}

package main

import "soundfolio/cmd"

func main() {
	cmd.Execute()
}

package main

import "churchsite/commands"

func main() {
	commands.Execute()
}

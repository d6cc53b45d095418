package main

import "github.com/lepinkainen/bookiebuddy/cmd"

var execute = cmd.Execute

func main() {
	execute()
}

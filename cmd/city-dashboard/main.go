package main

import "github.com/i474232898/city-dashboard/cmd/city-dashboard/command"

func main() {
	command.Execute()
}

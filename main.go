package main

import "github.com/jsphweid/strumdex/cmd"

func main() {
	cmd.Execute()
}

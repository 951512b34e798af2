package main

import "dwhctl/cmd"

func main() {
	cmd.Execute()
}

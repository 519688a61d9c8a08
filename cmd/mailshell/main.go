package main

import "github.com/todusapp/mailshell/cmd/mailshell/cmd"

func main() {
	cmd.Execute()
}

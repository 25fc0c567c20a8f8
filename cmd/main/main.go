package main

import "github.com/recollect/recollect/cmd"

func main() {
	cmd.Execute()
}

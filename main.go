package main

import "go-pkresolve/cmd"

func main() {
	cmd.Execute()
}

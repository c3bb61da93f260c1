package main

import "github.com/ellavondegurechaff/progression/cmd"

func main() {
	cmd.Execute()
}

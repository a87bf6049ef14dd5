package main

import "github.com/sw33tLie/booktrend/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/jfmyers9/hitparade/cmd"

func main() {
	cmd.Execute()
}

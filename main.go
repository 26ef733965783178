package main

import "github.com/fakeyudi/docsweep/cmd"

func main() {
	cmd.Execute()
}

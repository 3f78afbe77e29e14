package main

import "github.com/convodesk/convodesk/cmd"

func main() {
	cmd.Execute()
}

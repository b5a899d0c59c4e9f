package main

import "ustore/cmd"

func main() {
	cmd.Execute()
}

package main

import "radgrid/cli"

func main() {
	cli.Execute()
}

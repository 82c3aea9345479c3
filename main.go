package main

import "github.com/ethanolivertroy/antimirror/cmd"

func main() {
	cmd.Execute()
}

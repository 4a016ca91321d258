package main

import "github.com/drgolem/playout/cmd"

func main() {
	cmd.Execute()
}

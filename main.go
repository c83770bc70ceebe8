package main

import "player-statistics/cmd"

func main() {
	cmd.Execute()
}

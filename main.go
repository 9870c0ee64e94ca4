package main

import "feedsync/cmd"

func main() {
	cmd.Execute()
}

package main

import "reelshelf/internal/cli"

func main() {
	cli.Execute()
}

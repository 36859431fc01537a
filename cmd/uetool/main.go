package main

import "uetool/internal/cli"

func main() {
	cli.Execute()
}

package main

import "ui-translator/internal/cli"

func main() {
	cli.Execute()
}

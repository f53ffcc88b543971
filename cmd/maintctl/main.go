package main

import "maintenance-tracker/internal/cli"

func main() {
	cli.Execute()
}

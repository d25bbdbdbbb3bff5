package main

import "github.com/YuminosukeSato/marginal/pkg/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/mathservice-vn/platform/app/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/tessro/turntable/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/iliesw/OptimaDB/cli"

func main() {
	cli.Execute()
}

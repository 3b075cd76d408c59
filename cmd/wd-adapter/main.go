package main

import "github.com/devicelab-dev/wd-adapter/pkg/cli"

func main() {
	cli.Execute()
}

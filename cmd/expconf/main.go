package main

import "github.com/mvp-joe/expconf/internal/cli"

func main() {
	cli.Execute()
}

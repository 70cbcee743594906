package main

import "github.com/inventohub/patent-etl/internal/interfaces/cli"

func main() {
	cli.Execute()
}

package main

import "calora/backend/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/santiagomed/devspark/internal/cli"

func main() {
	cli.Execute()
}

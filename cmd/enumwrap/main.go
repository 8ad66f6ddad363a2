// Command enumwrap generates tagged unions that implement interfaces by
// dispatching to their active variant. Run it from go generate:
//
//	//go:generate go run martianoff/enumwrap/cmd/enumwrap generate
package main

import "martianoff/enumwrap/cmd/enumwrap/commands"

func main() {
	commands.Execute()
}

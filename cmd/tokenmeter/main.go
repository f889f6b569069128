// Package main is the entry point for the tokenmeter CLI and server.
package main

func main() {
	Execute()
}

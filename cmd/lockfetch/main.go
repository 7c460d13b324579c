// Package main provides the lockfetch CLI for resolving artifact
// lockfiles into a confined output area with supply-chain accounting.
package main

func main() {
	Execute()
}

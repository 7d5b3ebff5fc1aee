// Command importctl runs bulk imports and writes blank templates from the
// command line.
package main

func main() {
	execute()
}

// Command patsakd is the CLI entrypoint: boots the stream-socket server,
// applies the catalog bootstrap SQL against a target schema, or prints
// version information.
package main

func main() {
	Cmd()
}

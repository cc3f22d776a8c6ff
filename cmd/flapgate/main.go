package main

import "github.com/dstern/flapgate/cmd/flapgate/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/dashgit/dashgit/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/bz888/localchat/cmd"

func main() {
	cmd.Execute()
}

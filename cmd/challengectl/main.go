package main

import "github.com/0xsj/overwatch-payments/cmd/challengectl/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/CodeAndHammer/whackamole/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/Norgate-AV/constructor/cmd"

func main() {
	cmd.Execute()
}

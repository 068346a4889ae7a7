package main

import "github.com/AzielCF/fedisched/cmd"

func main() {
	cmd.Execute()
}

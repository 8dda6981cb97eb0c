package main

import "github.com/inhahackathon/foodmarket/cmd"

func main() {
	cmd.Execute()
}

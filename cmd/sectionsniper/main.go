package main

import "github.com/example/section-sniper/cmd"

func main() {
	cmd.Execute()
}

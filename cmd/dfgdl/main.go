package main

import "github.com/example/dfg-downloader/cmd"

func main() {
	cmd.Execute()
}

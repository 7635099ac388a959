package main

import (
	"github.com/autobrr/seedgc/cmd"
)

func main() {
	cmd.Execute()
}

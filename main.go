package main

import (
	"github.com/mkollner/cfss/cmd"
)

func main() {
	cmd.Execute()
}

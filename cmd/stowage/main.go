// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/stowage/cmd/stowage/cmd"
)

func main() {
	cmd.Execute()
}

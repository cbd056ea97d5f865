package main

import (
	"boscoin.io/dbo/cmd/dbo/cmd"
)

func main() {
	cmd.Execute()
}

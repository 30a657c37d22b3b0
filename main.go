package main

import "github.com/LegacyCodeHQ/tsextern/cmd"

func main() {
	cmd.Execute()
}

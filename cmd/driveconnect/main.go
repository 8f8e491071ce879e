package main

import "github.com/appmechanic/driveconnect/internal/cli"

func main() {
	cli.Execute()
}

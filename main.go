package main

import "github.com/Mohsinsiddi/smartfund/cmd"

func main() {
	cmd.Execute()
}

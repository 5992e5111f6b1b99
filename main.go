package main

import "github.com/chrisdamba/dealradar/cmd"

func main() {
	cmd.Execute()
}

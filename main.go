package main

import "github.com/weasel-sec/weasel/cmd/weasel"

func main() { weasel.Execute() }

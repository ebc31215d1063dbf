package main

import "github.com/ghostpush/ghostpush/cmd/ghostpush"

func main() { ghostpush.Execute() }

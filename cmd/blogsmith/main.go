package main

import (
	"blogsmith/cmd/handlers"
)

func main() {
	handlers.Execute()
}

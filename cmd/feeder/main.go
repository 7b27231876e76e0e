package main

import (
	"os"

	"horse.fit/feeder/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}

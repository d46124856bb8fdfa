package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd(os.Getenv).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"

	"github.com/Junni007/Devconnector/devconnector/bootstrap"
)

func main() {
	os.Exit(bootstrap.Run(context.Background()))
}

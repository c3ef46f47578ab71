package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/flippy/internal/admincli"
)

func main() {

	app := admincli.NewApp(os.Stdin, os.Stdout)

	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}

}

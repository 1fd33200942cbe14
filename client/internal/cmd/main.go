package main

import (
	"log"
	"github.com/prhdev222/med-file-case/client/pkg/cmd"
)

func main() {
	medctl, err := cmd.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := medctl.Execute(); err != nil {
		log.Fatal(err)
	}
}

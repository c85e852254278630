package main

import (
	"flag"
	"fmt"

	"github.com/Ayooluwabami/Blogging-API/pkg"

	log "github.com/sirupsen/logrus"
)

// prints a random hex key suitable for SECRET_KEY
func main() {
	n := flag.Int("bytes", 32, "number of random bytes in the key")
	flag.Parse()

	key, err := pkg.GenerateRandomHex(*n)
	if err != nil {
		log.Fatalf("generate secret key: %s", err)
	}

	fmt.Println(key)
}

package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Prints a fresh ECDSA P-256 private key in PEM format.
// Feed the output to the server via PRIVATE_KEY_PATH, tokens are ES256 signed
func main() {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		fmt.Printf("error while generating key: %v\n", err)
		os.Exit(1)
	}

	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		fmt.Printf("error while marshaling key: %v\n", err)
		os.Exit(1)
	}

	err = pem.Encode(os.Stdout, &pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	if err != nil {
		fmt.Printf("error while encoding key: %v\n", err)
		os.Exit(1)
	}
}

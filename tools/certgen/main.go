// Package main writes a self-signed server certificate and key for running
// habitxp over HTTPS locally. Point TLS_CERT and TLS_KEY at the output.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atinyakov/habitxp/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IPs")
	validFor := flag.Duration("valid-for", 365*24*time.Hour, "certificate validity")
	flag.Parse()

	var names []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			names = append(names, h)
		}
	}

	certPath, keyPath, err := certgen.WriteFiles(*dir, names, *validFor)
	if err != nil {
		log.Fatalf("generate certificate: %v", err)
	}

	fmt.Printf("TLS_CERT=%s\nTLS_KEY=%s\n", certPath, keyPath)
}

// Command h2specrun drives the h2 server through the official h2spec
// RFC 7540/7541 conformance suite, grounded on dgrr-http2's
// h2spec_test.go but packaged as a standalone runnable binary rather
// than a go test, since it runs a long curated section list and can
// take minutes against the full suite.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/framewire/h2"
	"github.com/summerwind/h2spec/config"
	"github.com/summerwind/h2spec/generic"
	h2spec "github.com/summerwind/h2spec/http2"
	"github.com/valyala/fasthttp"
)

var sections = []string{
	"generic/1/1", "generic/2/1", "generic/2/2", "generic/2/3", "generic/2/4", "generic/2/5",
	"generic/3.1/1", "generic/3.1/2", "generic/3.1/3",
	"generic/3.2/1", "generic/3.2/2", "generic/3.2/3",
	"generic/3.3/1", "generic/3.3/2", "generic/3.3/3", "generic/3.3/4", "generic/3.3/5",
	"generic/3.4/1", "generic/3.5/1", "generic/3.7/1", "generic/3.8/1",
	"generic/3.9/1", "generic/3.9/2", "generic/3.10/1", "generic/3.10/2",
	"generic/4/1", "generic/4/2", "generic/4/3", "generic/4/4",
	"generic/5/1", "generic/5/2", "generic/5/3", "generic/5/4", "generic/5/5",
	"generic/5/6", "generic/5/7", "generic/5/8", "generic/5/9", "generic/5/10",
	"generic/5/11", "generic/5/12", "generic/5/13", "generic/5/14", "generic/5/15",

	"http2/3.5/1", "http2/3.5/2",
	"http2/4.1/1", "http2/4.1/2", "http2/4.1/3",
	"http2/4.2/1", "http2/4.2/2", "http2/4.2/3",
	"http2/4.3/1", "http2/4.3/2", "http2/4.3/3",
	"http2/5.1.1/1", "http2/5.1.1/2",
	"http2/5.1/1", "http2/5.1/2", "http2/5.1/3", "http2/5.1/4", "http2/5.1/5",
	"http2/5.1/6", "http2/5.1/7", "http2/5.1/8", "http2/5.1/9", "http2/5.1/10",
	"http2/5.1/11", "http2/5.1/12", "http2/5.1/13",
	"http2/5.3.1/1", "http2/5.3.1/2",
	"http2/5.4.1/2", "http2/5.5/1", "http2/5.5/2",
	"http2/6.1/1", "http2/6.1/2", "http2/6.1/3",
	"http2/6.2/1", "http2/6.2/2", "http2/6.2/3", "http2/6.2/4",
	"http2/6.3/1", "http2/6.3/2",
	"http2/6.4/1", "http2/6.4/2", "http2/6.4/3",
	"http2/6.5.2/1", "http2/6.5.2/2", "http2/6.5.2/3", "http2/6.5.2/4", "http2/6.5.2/5",
	"http2/6.5.3/1", "http2/6.5.3/2",
	"http2/6.5/1", "http2/6.5/2", "http2/6.5/3",
	"http2/6.7/1", "http2/6.7/2", "http2/6.7/3", "http2/6.7/4",
	"http2/6.8/1",
	"http2/6.9.1/1", "http2/6.9.1/2", "http2/6.9.1/3", "http2/6.9.2/3",
	"http2/6.9/1", "http2/6.9/2", "http2/6.9/3",
	"http2/6.10/1", "http2/6.10/2", "http2/6.10/6",
	"http2/7/1", "http2/7/2",
	"http2/8.1.2.1/3", "http2/8.1/1", "http2/8.2/1",
	"hpack/2.3.3", "hpack/4.2", "hpack/5.2", "hpack/6.1", "hpack/6.3",
}

func main() {
	only := flag.String("section", "", "run only this section (default: the full curated list)")
	flag.Parse()

	port := launchServer()

	toRun := sections
	if *only != "" {
		toRun = []string{*only}
	}

	failures := 0
	for _, desc := range toRun {
		conf := &config.Config{
			Host:         "127.0.0.1",
			Port:         port,
			Path:         "/",
			Timeout:      time.Second,
			MaxHeaderLen: 4000,
			TLS:          true,
			Insecure:     true,
			Sections:     []string{desc},
		}

		tg := h2spec.Spec()
		if strings.HasPrefix(desc, "generic") {
			tg = generic.Spec()
		}

		tg.Test(conf)
		if tg.FailedCount > 0 {
			failures += tg.FailedCount
			fmt.Printf("FAIL %s (%d failures)\n", desc, tg.FailedCount)
		}
	}

	if failures > 0 {
		fmt.Printf("%d test(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("all sections passed")
}

func launchServer() int {
	certPEM, keyPEM, err := selfSignedKeyPair("h2spec.local")
	if err != nil {
		log.Fatalf("generating certificate: %v", err)
	}

	fs := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			ctx.Response.AppendBodyString("h2specrun")
		},
	}
	h2.ConfigureServer(fs, nil)

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	go func() {
		log.Println("server:", fs.ServeTLSEmbed(ln, certPEM, keyPEM))
	}()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		log.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("parse port: %v", err)
	}
	return port
}

func selfSignedKeyPair(domain string) ([]byte, []byte, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	serialLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return nil, nil, err
	}

	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: domain},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{domain},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, err
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return certPEM, keyPEM, nil
}

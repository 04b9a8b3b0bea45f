package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/shpitdev/eventbrite-extractor/pkg/mockeventbrite"
)

func main() {
	addr := defaultString("MOCK_EVENTBRITE_ADDR", ":8080")
	pagesDir := defaultString("MOCK_EVENTBRITE_PAGES_DIR", "/data/pages")
	token := defaultString("MOCK_EVENTBRITE_TOKEN", "")

	fs := flag.NewFlagSet("mock-eventbrite", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&pagesDir, "pages-dir", pagesDir, "Directory of page files (*.json arrays of results), served in lexical order")
	fs.StringVar(&token, "token", token, "Require this bearer token when set (also supports env: MOCK_EVENTBRITE_TOKEN)")
	_ = fs.Parse(os.Args[1:])

	pages, err := mockeventbrite.LoadPagesDir(pagesDir)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load pages: %v\n", err)
		os.Exit(1)
	}
	srv := mockeventbrite.New(pages...)
	srv.RequireBearerToken(token)

	_, _ = fmt.Fprintf(os.Stdout, "mock-eventbrite listening on %s (pages=%d dir=%s)\n", addr, len(pages), pagesDir)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}

// Use: go run ./scripts/gentree.go ROOT DEPTH FANOUT FILES
//
// Builds a synthetic tree under ROOT for load testing disksearcher: every
// directory down to DEPTH gets FANOUT subdirectories and FILES files. About a
// third of the files are named report_<ulid>.txt, so a run with pattern
// "report" and extension ".txt" has something to collect.

package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

var extensions = []string{".txt", ".csv", ".log"}

func main() {
	if len(os.Args) != 5 {
		log.Fatalf("usage: %s ROOT DEPTH FANOUT FILES", filepath.Base(os.Args[0]))
	}
	root := os.Args[1]
	depth := mustAtoi(os.Args[2])
	fanout := mustAtoi(os.Args[3])
	files := mustAtoi(os.Args[4])

	start := time.Now()
	var dirs, written atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())

	var walk func(dir string, level int)
	walk = func(dir string, level int) {
		g.Go(func() error {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return err
			}
			dirs.Add(1)
			for i := 0; i < files; i++ {
				name := fmt.Sprintf("data_%s%s", ulid.MustNew(ulid.Now(), rand.Reader), extensions[i%len(extensions)])
				if i%3 == 0 {
					name = fmt.Sprintf("report_%s.txt", ulid.MustNew(ulid.Now(), rand.Reader))
				}
				if err := os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0o600); err != nil {
					return err
				}
				written.Add(1)
			}
			return nil
		})
		if level == depth {
			return
		}
		for i := 0; i < fanout; i++ {
			walk(filepath.Join(dir, "d"+strconv.Itoa(i)), level+1)
		}
	}
	walk(root, 0)

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("created %d directories and %d files in %s\n", dirs.Load(), written.Load(), time.Since(start))
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		log.Fatalf("invalid number %q", s)
	}
	return n
}

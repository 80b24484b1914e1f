// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command cilscan loads a .NET CLI image, prints its metadata summary, and
// decompiles every method body it can reach into readable pseudocode.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	peparser "github.com/cilscan/cilscan"
	"github.com/cilscan/cilscan/log"
)

func main() {
	jsonOut := flag.Bool("json", false, "dump the metadata summary as JSON instead of decompiled pseudocode")
	dirMode := flag.Bool("dir", false, "treat the argument as a directory and scan every file in it")
	fast := flag.Bool("fast", false, "stop after the container and table load, skipping method bodies")
	workers := flag.Int("workers", 4, "number of worker goroutines used by -dir")
	resolveSrc := flag.String("resolve-src", "", "optional: a local Go source tree to cross-reference resolved call names against")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cilscan [-json] [-dir] [-fast] [-workers N] <path>")
		os.Exit(1)
	}
	target := flag.Arg(0)

	logger := log.NewFilter(log.NewStdLogger(os.Stdout), log.FilterLevel(log.LevelError))

	opts := &peparser.Options{
		Logger:        logger,
		SkipDecompile: *fast,
	}

	exitCode := 0
	if *dirMode {
		exitCode = scanDirectory(target, opts, *jsonOut, *workers)
	} else {
		image, err := scanFileImage(target, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", target, err)
			os.Exit(1)
		}
		if image != nil {
			if err := reportImage(image, *jsonOut); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", target, err)
				exitCode = 1
			}
			if *resolveSrc != "" {
				crossReferenceLocalSource(image, *resolveSrc)
			}
			image.Close()
		}
	}
	os.Exit(exitCode)
}

// scanDirectory walks path with a small worker pool: one goroutine collects
// file paths, a fixed pool of workers drains them concurrently.
func scanDirectory(root string, opts *peparser.Options, jsonOut bool, workerCount int) int {
	paths := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				if err := scanFile(path, opts, jsonOut); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				}
			}
		}()
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		paths <- path
		return nil
	})
	close(paths)
	wg.Wait()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", root, err)
		return 1
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// scanFile loads and reports one image in a single step, for the -dir
// worker pool where there is no further per-file use for the *File.
func scanFile(path string, opts *peparser.Options, jsonOut bool) error {
	image, err := scanFileImage(path, opts)
	if err != nil || image == nil {
		return err
	}
	defer image.Close()
	return reportImage(image, jsonOut)
}

// scanFileImage loads path and parses it, returning a nil *File (not an
// error) for a well-formed file that simply carries no CLI header.
func scanFileImage(path string, opts *peparser.Options) (*peparser.File, error) {
	if err := checkReadable(path); err != nil {
		return nil, err
	}

	image, err := peparser.New(path, opts)
	if err != nil {
		return nil, err
	}

	if err := image.Parse(); err != nil {
		image.Close()
		return nil, err
	}
	if !image.FileInfo.HasCLR {
		fmt.Fprintf(os.Stderr, "%s: no CLI header, skipping\n", path)
		image.Close()
		return nil, nil
	}
	return image, nil
}

func reportImage(image *peparser.File, jsonOut bool) error {
	if jsonOut {
		return printJSON(image)
	}
	return printDecompiled(image)
}

// assemblyHeader renders the image's defining Assembly row (if any) as a
// "// Name, Version=vMAJOR.MINOR.BUILD.REVISION" comment line, so a decompiled dump
// can be traced back to the assembly it came from.
func assemblyHeader(image *peparser.File) string {
	table, ok := image.CLR.MetadataTables[peparser.Assembly]
	if !ok {
		return ""
	}
	rows, ok := table.Content.([]peparser.AssemblyTableRow)
	if !ok || len(rows) == 0 {
		return ""
	}
	row := rows[0]
	name, err := image.CLR.Heaps.Strings.Get(row.Name)
	if err != nil || name == "" {
		return ""
	}
	version := peparser.FormatAssemblyVersion(row.MajorVersion, row.MinorVersion, row.BuildNumber)
	return fmt.Sprintf("// %s, Version=%s.%d", name, version, row.RevisionNumber)
}

func printJSON(image *peparser.File) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(image.CLR); err != nil {
		return err
	}
	_, err := os.Stdout.Write(buf.Bytes())
	return err
}

func printDecompiled(image *peparser.File) error {
	if hdr := assemblyHeader(image); hdr != "" {
		fmt.Println(hdr)
	}
	for _, m := range image.CLR.Methods {
		src, err := image.Decompile(m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "method %q (row %d): %v\n", m.Name, m.RowIndex, err)
			continue
		}
		fmt.Print(src)
	}
	return nil
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"go/ast"
	"os"

	peparser "github.com/cilscan/cilscan"
	"golang.org/x/tools/go/packages"
)

// funcDeclName reports the identifier of decl when it is a plain (non-method)
// function declaration.
func funcDeclName(decl ast.Decl) (string, bool) {
	fn, ok := decl.(*ast.FuncDecl)
	if !ok || fn.Recv != nil {
		return "", false
	}
	return fn.Name.Name, true
}

// crossReferenceLocalSource is a best-effort convenience: it loads the Go
// packages under srcDir and reports which resolved call targets in image
// share a bare name with a declared Go function, as a loose hint for readers
// cross-checking a decompiled .NET call against a managed reimplementation
// living in the same tree. It never affects exit status and any packages.Load
// failure is reported but not fatal, since this is a convenience, not a core
// loader stage.
func crossReferenceLocalSource(image *peparser.File, srcDir string) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedSyntax}
	pkgs, err := packages.Load(cfg, srcDir+"/...")
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve-src: %v\n", err)
		return
	}

	goNames := map[string]bool{}
	for _, p := range pkgs {
		for _, f := range p.Syntax {
			for _, decl := range f.Decls {
				if fn, ok := funcDeclName(decl); ok {
					goNames[fn] = true
				}
			}
		}
	}

	for _, m := range image.CLR.Methods {
		if goNames[m.Name] {
			fmt.Printf("%s: matches a local Go function of the same name\n", m.Name)
		}
	}
}

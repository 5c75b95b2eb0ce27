// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Harmful-Alchemist/lc3vm/pkg/assembler"
)

var helpvar bool
var outvar string

const usage = "lc3-asm [-out outfile] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

func lc3asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	source, err := os.ReadFile(args[0])

	if err != nil {
		log.Println(err)
		return 1
	}

	program, err := assembler.Assemble(string(source))

	if err != nil {
		log.Printf("%s:%s", filepath.Base(args[0]), err)
		return 1
	}

	if outvar == "" {
		base := filepath.Base(args[0])
		outvar = strings.TrimSuffix(base, filepath.Ext(base)) + ".obj"
	}

	outfile, err := os.Create(outvar)

	if err != nil {
		log.Println(err)
		return 1
	}

	defer outfile.Close()

	if err := program.WriteImage(outfile); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(lc3asm())
}

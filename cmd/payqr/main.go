// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command payqr writes a version 6, level H QR code for a short text,
// typically a payment link.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/renameio"
	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"

	qr "github.com/promc/payqr"
	"github.com/promc/payqr/coding"
)

var g = struct {
	size   int         // image size in pixels
	mask   coding.Mask // data mask
	fn     string      // filename
	format int         // output file format
	latin1 bool        // Latin-1 input
	sjis   bool        // Shift JIS input
	debug  bool        // dump format information
}{}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	fmt.Fprint(w, "QR code generator for payment links\nUsage: ",
		cl.Program(), " ", cl.UsageLine(), ` [string ...]
If no string is given, data is read from standard input and the final
newline is stripped.  The code is version 6 (41x41 modules), error
correction level H, with UTF-8 text of at most `, coding.MaxContent,
		` bytes.

`)
	var b bytes.Buffer
	cl.PrintOptions(&b)
	w.Write(b.Bytes())
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`payqr version 0.1.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2024 Vadim Vygonets`)
	os.Exit(0)
}

var formats = []string{"png", "pbm", "utf8", "ascii"}

var encoders = [...]func(*qr.Code, io.Writer) error{
	func(c *qr.Code, w io.Writer) error {
		return qr.Rasterize(c, g.size).EncodePNG(w)
	},
	func(c *qr.Code, w io.Writer) error {
		return qr.Rasterize(c, g.size).EncodePBM(w)
	},
	func(c *qr.Code, w io.Writer) error {
		_, err := fmt.Fprint(w, c)
		return err
	},
	ascii,
}

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.Flag(&g.latin1, '1', "Latin-1 input")
	getopt.Flag(&g.sjis, 'k', "Shift JIS input")
	getopt.Flag(&g.debug, 'd', "print mask and format information "+
		"to standard error")
	fno := getopt.Flag(&g.fn, 'o', `output file, or "-" for `+
		`standard output; the file is replaced atomically`, "file")
	mask := getopt.Unsigned('m', uint64(coding.DefaultMask.Index()),
		&getopt.UnsignedLimit{Base: 0, Bits: 8, Min: 0, Max: 0}, "data mask pattern, 0 to 7",
		"mask")
	size := getopt.Unsigned('s', 128,
		&getopt.UnsignedLimit{Base: 0, Bits: 16, Min: 1, Max: 1 << 14},
		`image width and height in pixels for types png and pbm; `+
			`at least 41, each module takes size/41 pixels`, "size")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+
		`; if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise png`, "type")

	getopt.Parse()
	if g.latin1 && g.sjis {
		fmt.Fprintln(os.Stderr, "-1 and -k are incompatible")
		usage()
	}
	var err error
	if g.mask, err = coding.MaskOf(int(*mask)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
	}
	g.size = int(*size)
	if *ff == "" {
		if !fno.Seen() && isatty.IsTerminal(os.Stdout.Fd()) {
			*ff = "utf8"
		} else {
			*ff = "png"
		}
	}
	for i, v := range formats {
		if *ff == v {
			g.format = i
			break
		}
	}
	if g.fn == "-" {
		g.fn = ""
	}
}

// input returns the text to encode, converted to UTF-8.
func input() (string, error) {
	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			return "", err
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}
	var enc encoding.Encoding
	switch {
	case g.latin1:
		enc = charmap.ISO8859_1
	case g.sjis:
		enc = japanese.ShiftJIS
	default:
		return s, nil
	}
	return enc.NewDecoder().String(s)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("payqr: ")
	parseFlags()

	s, err := input()
	if err != nil {
		log.Fatalln(err)
	}
	c, err := qr.EncodeMask(s, g.mask)
	if err != nil {
		log.Fatalln(err)
	}
	if g.debug {
		a, b := coding.ReadFormat(&c.Matrix)
		log.Printf("%d bytes, %v, format %015b %015b",
			len(s), c.Mask, a, b)
	}
	if err := write(c); err != nil {
		log.Fatalln(err)
	}
}

func write(c *qr.Code) error {
	enc := encoders[g.format]
	if g.fn == "" {
		return enc(c, os.Stdout)
	}
	o, err := renameio.TempFile("", g.fn)
	if err != nil {
		return err
	}
	defer o.Cleanup()
	if err := enc(c, o); err != nil {
		return err
	}
	return o.CloseAtomicallyReplace()
}

// quiet zone for type ascii, in modules
const asciiBorder = 4

func ascii(c *qr.Code, w io.Writer) error {
	siz := c.Size()
	bord := asciiBorder
	pix := siz + 2*bord
	b := make([]byte, (pix*2+1)*pix)
	i := 0
	for y := -bord; y < siz+bord; y++ {
		for x := -bord; x < siz+bord; x++ {
			var p byte = ' '
			if c.Black(x, y) {
				p = '#'
			}
			_ = b[i+1]
			b[i], b[i+1] = p, p
			i += 2
		}
		b[i] = '\n'
		i++
	}
	_, err := w.Write(b)
	return err
}

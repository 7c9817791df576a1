// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command qrstream encodes, decodes, and streams data through QR
// codes from the command line.
package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"

	"github.com/qrstream/qrstream"
	"github.com/qrstream/qrstream/coding"
	"github.com/qrstream/qrstream/stream"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: qrstream encode [-l level] [-o file] [string ...]
       qrstream decode [file.png]
       qrstream send [-c chunksize] file
       qrstream recv [-o file] frame.png ...`)
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}
	cmd, args := os.Args[1], os.Args[2:]
	os.Args = append([]string{os.Args[0]}, args...)
	switch cmd {
	case "encode":
		runEncode()
	case "decode":
		runDecode()
	case "send":
		runSend()
	case "recv":
		runRecv()
	default:
		usage()
	}
}

func runEncode() {
	lev := getopt.Enum('l', []string{"l", "m", "q", "h", "L", "M", "Q", "H"}, "m",
		"error correction level, lowest to highest", "l|m|q|h")
	out := getopt.StringLong("output", 'o', "", "output PNG file, or \"-\" for standard output", "file")
	getopt.Parse()

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalln(err)
		}
		s = strings.TrimSuffix(string(b), "\n")
	}
	level := qrstream.Level(strings.IndexByte("lmqhLMQH", (*lev)[0]) & 3)
	c, err := qrstream.Encode([]byte(s), level)
	if err != nil {
		log.Fatalln(err)
	}

	w := os.Stdout
	if *out != "" && *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		w = f
	}
	if *out == "" && isatty.IsTerminal(uintptr(syscall.Stdout)) {
		printASCII(c)
		return
	}
	if err := c.EncodePNG(w); err != nil {
		log.Fatalln(err)
	}
}

func printASCII(c *qrstream.Code) {
	size := c.Size()
	for y := -c.Border; y < size+c.Border; y++ {
		var line strings.Builder
		for x := -c.Border; x < size+c.Border; x++ {
			if c.Black(x, y) {
				line.WriteString("##")
			} else {
				line.WriteString("  ")
			}
		}
		fmt.Println(line.String())
	}
}

func runDecode() {
	getopt.Parse()
	args := getopt.Args()
	var r io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		r = f
	}
	img, err := png.Decode(r)
	if err != nil {
		log.Fatalln(err)
	}
	gray, w, h := toGray(img)
	sym, err := qrstream.Decode(gray, w, h)
	if err != nil {
		log.Fatalln(err)
	}
	os.Stdout.Write(sym.Payload)
}

func toGray(img image.Image) ([]byte, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out[y*w+x] = byte((299*uint32(r>>8) + 587*uint32(g>>8) + 114*uint32(bl>>8)) / 1000)
		}
	}
	return out, w, h
}

func runSend() {
	chunk := getopt.IntLong("chunk", 'c', stream.DefaultChunkSize, "bytes per frame", "n")
	getopt.Parse()
	args := getopt.Args()
	if len(args) != 1 {
		usage()
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalln(err)
	}
	s, err := stream.NewSender(data, *chunk)
	if err != nil {
		log.Fatalln(err)
	}
	s.Start()
	for i := 0; ; i++ {
		pkt, ok := s.Next()
		if !ok {
			break
		}
		c, err := qrstream.Encode(pkt.Marshal(), coding.M)
		if err != nil {
			log.Fatalln(err)
		}
		f, err := os.Create(fmt.Sprintf("frame-%04d.png", i))
		if err != nil {
			log.Fatalln(err)
		}
		err = c.EncodePNG(f)
		f.Close()
		if err != nil {
			log.Fatalln(err)
		}
	}
}

func runRecv() {
	out := getopt.StringLong("output", 'o', "-", "output file, or \"-\" for standard output", "file")
	getopt.Parse()
	args := getopt.Args()
	r := stream.NewReceiver()
	r.OnComplete = func(payload []byte) {
		w := os.Stdout
		if *out != "-" {
			f, err := os.Create(*out)
			if err != nil {
				log.Fatalln(err)
			}
			defer f.Close()
			w = f
		}
		w.Write(payload)
	}
	for _, fn := range args {
		f, err := os.Open(fn)
		if err != nil {
			log.Fatalln(err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			log.Fatalln(err)
		}
		gray, w, h := toGray(img)
		sym, err := qrstream.Decode(gray, w, h)
		if err != nil {
			log.Println(fn, err)
			continue
		}
		if res := r.OnFrame(sym.Payload); !res.Accepted {
			if res.HasSeq {
				log.Printf("%s: rejected frame %d: %s", fn, res.Seq, res.Reason)
			} else {
				log.Printf("%s: rejected frame: %s", fn, res.Reason)
			}
		}
	}
	if missing := r.Missing(); len(missing) > 0 {
		log.Fatalf("missing frames: %v; checksum errors: %v", missing, r.ChecksumErrorSeqs())
	}
}

// worse runs combinator-calculus programs as byte stream transducers.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/worse/compiler"
	"github.com/chazu/worse/manifest"
	"github.com/chazu/worse/server"
	"github.com/chazu/worse/vm"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

// ImageExt marks files loaded with vm.ReadImage instead of the parser.
const ImageExt = ".wimg"

var log = commonlog.GetLogger("worse.cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// countFlag counts how many times a boolean flag is given.
type countFlag int

func (c *countFlag) String() string   { return fmt.Sprint(int(*c)) }
func (c *countFlag) IsBoolFlag() bool { return true }

func (c *countFlag) Set(s string) error {
	switch s {
	case "true":
		*c++
	case "false":
		*c = 0
	default:
		return fmt.Errorf("invalid value %q", s)
	}
	return nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("worse", flag.ContinueOnError)
	fs.SetOutput(stderr)

	showVersion := fs.Bool("version", false, "Print version and exit")
	var verbose countFlag
	fs.Var(&verbose, "v", "Verbose logging to stderr (repeat for more detail)")
	interactive := fs.Bool("i", false, "Read program input from an interactive prompt")
	lspMode := fs.Bool("lsp", false, "Run the language server on stdio")
	compileOut := fs.String("compile", "", "Write a term image to `OUT` instead of running")
	quote := fs.Bool("quote", false, "Read stdin and print source for a program that emits it")
	configDir := fs.String("config", "", "Search for worse.toml starting in `DIR` (default: current directory)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: worse [options] [FILE]\n\n")
		fmt.Fprintf(stderr, "Runs FILE, feeding it stdin and copying what it emits to stdout.\n")
		fmt.Fprintf(stderr, "FILE is source text, or a term image if it ends in %s. Without FILE\n", ImageExt)
		fmt.Fprintf(stderr, "the entry named in worse.toml is run.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  worse hello.w                    # Print a greeting\n")
		fmt.Fprintf(stderr, "  worse echo.w < in.txt            # Copy in.txt to stdout\n")
		fmt.Fprintf(stderr, "  worse -compile echo%s echo.w   # Save a term image\n", ImageExt)
		fmt.Fprintf(stderr, "  printf 'hi' | worse -quote > hi.w  # Source that prints \"hi\"\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "worse %s\n", version)
		return 0
	}

	m, err := loadManifest(*configDir)
	if err != nil {
		fmt.Fprintf(stderr, "worse: %v\n", err)
		return 1
	}
	commonlog.Configure(m.Log.Verbosity+int(verbose), m.LogPath())

	switch {
	case *lspMode:
		if err := server.NewLSP(version).Run(); err != nil {
			fmt.Fprintf(stderr, "worse: language server: %v\n", err)
			return 1
		}
		return 0

	case *quote:
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "worse: %v\n", err)
			return 1
		}
		io.WriteString(stdout, compiler.Quote(data))
		return 0
	}

	path := m.EntryPath()
	switch fs.NArg() {
	case 0:
		if path == "" {
			fmt.Fprintf(stderr, "worse: no program given and no entry in %s\n", manifest.FileName)
			fs.Usage()
			return 2
		}
	case 1:
		path = fs.Arg(0)
	default:
		fmt.Fprintf(stderr, "worse: expected one program, got %d\n", fs.NArg())
		return 2
	}

	h := vm.NewHeap()
	program, err := loadProgram(h, path)
	if err != nil {
		fmt.Fprintf(stderr, "worse: %v\n", err)
		return 1
	}

	if *compileOut != "" {
		if err := writeImage(*compileOut, h, program, m.Image.Compress); err != nil {
			fmt.Fprintf(stderr, "worse: %v\n", err)
			return 1
		}
		return 0
	}

	var in io.Reader = stdin
	if *interactive {
		p := newPromptReader("> ")
		defer p.Close()
		in = p
	} else if m.Runtime.InputBuffer > 0 {
		in = bufio.NewReaderSize(stdin, m.Runtime.InputBuffer)
	}

	s := vm.NewStream(h, program, in)
	defer s.Close()
	if err := copyOutput(stdout, s, m.Runtime.Flush); err != nil {
		fmt.Fprintf(stderr, "worse: %s: %v\n", path, err)
		return 1
	}
	log.Debugf("%s: emitted %d bytes, consumed %d", path, s.Produced(), s.Consumed())
	return 0
}

// loadManifest finds worse.toml from dir upwards, falling back to defaults.
func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir == "" {
		dir = "."
	}
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}
	return m, nil
}

// loadProgram reads path as a term image or as source.
func loadProgram(h *vm.Heap, path string) (vm.Term, error) {
	if strings.HasSuffix(path, ImageExt) {
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		t, err := vm.ReadImage(bufio.NewReader(f), h)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		return t, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	t, err := compiler.Parse(h, string(src))
	if err != nil {
		return 0, fmt.Errorf("%s:%w", path, err)
	}
	log.Debugf("%s: loaded %d heap nodes", path, h.Live())
	return t, nil
}

// writeImage saves program to path. program is consumed.
func writeImage(path string, h *vm.Heap, program vm.Term, compress bool) error {
	defer h.Release(program)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := vm.WriteImage(w, h, program, vm.ImageOptions{Compress: compress}); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// copyOutput drains s into w. With the byte flush policy everything emitted
// is flushed before the stream next waits on input.
func copyOutput(w io.Writer, s *vm.Stream, flush string) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 4096)
	for {
		n, err := s.Read(buf)
		if n > 0 {
			if _, werr := bw.Write(buf[:n]); werr != nil {
				return werr
			}
			if flush == manifest.FlushByte {
				if ferr := bw.Flush(); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			return bw.Flush()
		}
		if err != nil {
			bw.Flush()
			return err
		}
	}
}

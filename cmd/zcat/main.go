package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/absfs/zread"
)

const version = "0.1.0"

// maxBulkSize keeps 2×bulk within an int on every platform.
const maxBulkSize = math.MaxInt32 / 2

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	bulkSize string
	verbose  bool
	strict   bool
	version  bool
}

// run decodes every file named in args to stdout, in order, and returns the
// process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	flagSet := pflag.NewFlagSet("zcat", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.bulkSize, "bulk-size", "b", humanize.IBytes(zread.DefaultBulkSize), "size of each read from disk (e.g. 64KiB, 4MiB)")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log detected formats and per-file statistics")
	flagSet.BoolVar(&opts.strict, "strict", false, "exit with an error when a file is corrupt or truncated")
	flagSet.BoolVar(&opts.version, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return 0
		}
		fmt.Fprintf(stderr, "zcat: %v\n", err)
		return 1
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "zcat %s\n", version)
		return 0
	}

	log.SetOutput(stderr)
	log.SetLevel(log.WarnLevel)
	if opts.verbose {
		log.SetLevel(log.DebugLevel)
	}

	files := flagSet.Args()
	if len(files) == 0 {
		fmt.Fprintln(stderr, "input from stdin is not supported.")
		return 1
	}

	bulk, err := humanize.ParseBytes(opts.bulkSize)
	if err != nil {
		fmt.Fprintf(stderr, "zcat: invalid bulk size %q: %v\n", opts.bulkSize, err)
		return 1
	}
	if bulk < 8 {
		fmt.Fprintf(stderr, "zcat: %v\n", zread.ErrInvalidBulkSize)
		return 1
	}
	if bulk > maxBulkSize {
		fmt.Fprintf(stderr, "zcat: bulk size %s is larger than %s\n", opts.bulkSize, humanize.IBytes(maxBulkSize))
		return 1
	}
	config := &zread.Config{BulkSize: int(bulk)}

	w := bufio.NewWriterSize(stdout, int(bulk))
	buf := make([]byte, bulk)
	for _, name := range files {
		if err := cat(w, buf, name, config, opts); err != nil {
			w.Flush()
			if errors.Is(err, errOpen) {
				fmt.Fprintf(stderr, "failed to open file `%s'\n", name)
			}
			log.WithFields(log.Fields{"f": "zcat.run", "fn": name}).WithError(err).Error("aborting")
			return 1
		}
	}
	if err := w.Flush(); err != nil {
		log.WithFields(log.Fields{"f": "zcat.run"}).WithError(err).Error("write failed")
		return 1
	}
	return 0
}

var errOpen = errors.New("open failed")

// cat drains one file into w.
func cat(w io.Writer, buf []byte, name string, config *zread.Config, opts options) error {
	s, err := zread.OpenFile(name, config)
	if err != nil {
		return fmt.Errorf("%w: %w", errOpen, err)
	}
	defer s.Close()

	ctx := log.WithFields(log.Fields{"f": "zcat.cat", "fn": name, "format": s.Format()})
	if ext, ok := zread.FormatFromExtension(name); ok && ext != s.Format() {
		ctx.Debugf("file name suggests %v", ext)
	}

	for !s.AtEnd() {
		n, _ := s.Read(buf)
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
	}

	st := s.Stats()
	ctx.WithFields(log.Fields{
		"in":    humanize.IBytes(uint64(st.BytesIn)),
		"out":   humanize.IBytes(uint64(st.BytesOut)),
		"steps": st.Steps,
	}).Debug("done")

	if err := s.Err(); err != nil {
		if opts.strict {
			return err
		}
		ctx.WithError(err).Warn("stream ended early")
	}
	return nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `zcat: print the decoded content of gzip, bzip2, xz or plain files.

The format of every file is detected from its first bytes, so compressed
and plain files can be mixed freely. Reading from stdin is not supported.

Usage:
  zcat [flags] FILE...

Flags:
%s`, flagSet.FlagUsages())
}

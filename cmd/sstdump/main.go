// Command sstdump prints or verifies the contents of a table file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"

	"sstable_go/table"
)

func main() {
	configPath := flag.String("config", "", "YAML reader options")
	verify := flag.Bool("verify", false, "Read and checksum every block instead of printing entries")
	limit := flag.Int("limit", 0, "Maximum entries to print (0 prints all)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <table-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(flag.Arg(0), *configPath, *verify, *limit, logger); err != nil {
		logger.Error("sstdump failed", "table", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(path, configPath string, verify bool, limit int, logger *slog.Logger) error {
	opts := table.DefaultOptions()
	if configPath != "" {
		var err error
		opts, err = table.LoadOptions(configPath)
		if err != nil {
			return errors.Wrap(err, "load options")
		}
	}
	opts.Logger = logger

	r, err := table.Open(path, opts)
	if err != nil {
		return errors.Wrap(err, "open table")
	}
	defer r.Close()

	footer := r.Footer()
	fmt.Printf("size:      %d\n", r.Size())
	fmt.Printf("metaindex: %s\n", footer.MetaIndex)
	fmt.Printf("index:     %s\n", footer.Index)

	if verify {
		return errors.Wrap(verifyBlocks(r), "verify")
	}

	it := r.Iterator()
	n := 0
	for it.Next() {
		if limit > 0 && n >= limit {
			break
		}
		fmt.Printf("%q => %q\n", it.Key(), it.Value())
		n++
	}
	return errors.Wrapf(it.Err(), "iteration stopped after %d entries", n)
}

func verifyBlocks(r *table.Reader) error {
	if _, err := r.MetaIndex(); err != nil {
		return errors.Wrap(err, "metaindex")
	}

	blocks, entries := 0, 0
	index := r.IndexBlock().Iterator()
	for index.Next() {
		bh, n := table.DecodeBlockHandle(index.Value())
		if n == 0 {
			return errors.Newf("index entry %d: invalid block handle", blocks)
		}
		block, err := r.ReadBlock(bh)
		if err != nil {
			return errors.Wrapf(err, "block %s", bh)
		}
		it := block.Iterator()
		for it.Next() {
			entries++
		}
		if err := it.Err(); err != nil {
			return errors.Wrapf(err, "block %s", bh)
		}
		blocks++
	}
	if err := index.Err(); err != nil {
		return errors.Wrap(err, "index")
	}
	fmt.Printf("ok: %d data blocks, %d entries\n", blocks, entries)
	return nil
}

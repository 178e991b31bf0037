package table

import (
	"io"
	"log/slog"
	"sync"
)

// closer tears down a table file: unmap first, then close the descriptor.
// It runs at most once. An unmap failure is returned, from the first and
// every later call; a descriptor close failure is only logged since the
// descriptor holds no unflushed state.
type closer struct {
	name   string
	unmap  func() error
	file   io.Closer
	logger *slog.Logger

	once sync.Once
	err  error
}

func newCloser(name string, unmap func() error, file io.Closer, logger *slog.Logger) *closer {
	return &closer{
		name:   name,
		unmap:  unmap,
		file:   file,
		logger: loggerOrDiscard(logger),
	}
}

func (c *closer) Close() error {
	c.once.Do(func() {
		if c.unmap != nil {
			if err := c.unmap(); err != nil {
				c.err = ioErrorf(err, "sstable: unmap %s", c.name)
			}
		}
		if c.file != nil {
			if err := c.file.Close(); err != nil {
				c.logger.Warn("sstable: close table file", "table", c.name, "error", err)
			}
		}
	})
	return c.err
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

package table

import (
	"io/fs"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassesVisibleToStdlib(t *testing.T) {
	tests := []struct {
		err   error
		class error
		kind  string
	}{
		{formatErrorf("bad magic %x", 1), ErrFormat, "format"},
		{corruptionErrorf("checksum mismatch"), ErrCorruption, "corruption"},
		{wrapCorruption(errors.New("snappy: corrupt input"), "snappy decode"), ErrCorruption, "corruption"},
		{outOfRangeErrorf("block %d", 7), ErrOutOfRange, "out_of_range"},
		{ioErrorf(fs.ErrNotExist, "open %s", "x.ldb"), ErrIO, "io"},
		{ioErrorf(nil, "too big"), ErrIO, "io"},
		{closedErrorf("closed"), ErrClosed, "closed"},
	}
	for _, tt := range tests {
		// assert.ErrorIs uses the standard library errors.Is
		assert.ErrorIs(t, tt.err, tt.class, tt.err.Error())
		assert.True(t, errors.Is(tt.err, tt.class), tt.err.Error())
		assert.Equal(t, tt.kind, errorKind(tt.err))
		assert.NotContains(t, tt.err.Error(), tt.class.Error())
	}
}

func TestErrorClassKeepsCause(t *testing.T) {
	err := ioErrorf(fs.ErrNotExist, "open %s", "x.ldb")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrCorruption)
	assert.Equal(t, "open x.ldb: file does not exist", err.Error())

	wrapped := errors.Wrap(corruptionErrorf("checksum mismatch"), "block 0")
	assert.ErrorIs(t, wrapped, ErrCorruption)
	assert.NotErrorIs(t, wrapped, ErrFormat)
}

package table

import (
	"bytes"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"sstable_go/util"
)

// FileAccess selects how a table file is read.
type FileAccess string

const (
	// FileAccessMmap maps the whole file and slices blocks out of the mapping.
	FileAccessMmap FileAccess = "mmap"
	// FileAccessPread reads each block with a positional read.
	FileAccessPread FileAccess = "pread"
)

var validate = validator.New()

// Options configures a Reader. The zero value verifies checksums and maps
// the file with a bytewise key order.
type Options struct {
	// DisableChecksums skips CRC verification of blocks.
	DisableChecksums bool `yaml:"disable_checksums"`
	// FileAccess defaults to FileAccessMmap.
	FileAccess FileAccess `yaml:"file_access" validate:"omitempty,oneof=mmap pread"`

	Comparator util.Comparator `yaml:"-" validate:"-"`
	Logger     *slog.Logger    `yaml:"-" validate:"-"`
	Metrics    *Metrics        `yaml:"-" validate:"-"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		FileAccess: FileAccessMmap,
	}
}

func (o *Options) orDefault() *Options {
	if o == nil {
		return DefaultOptions()
	}
	return o
}

// Validate checks the serializable fields of o.
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(err, "sstable: invalid options")
	}
	return nil
}

// LoadOptions reads options from a YAML file. Unknown keys are rejected and
// an empty file yields DefaultOptions.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "sstable: read options %s", path)
	}
	return ParseOptions(data)
}

// ParseOptions decodes YAML options; see LoadOptions.
func ParseOptions(data []byte) (*Options, error) {
	o := DefaultOptions()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(o); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "sstable: parse options")
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// SPDX-License-Identifier: MPL-2.0

package operator

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
)

const (
	// Magic opens every record.
	Magic = ">><<"

	fieldSep = ':'
	argSep   = ';'
	kvSep    = '='

	// DefaultMaxHeaderField bounds the template, argument and length
	// fields of a record. Content is not bounded.
	DefaultMaxHeaderField = 64 << 10
)

// Marshal encodes o as one record. len(o.Content) is written as the
// content length; o.ContentLen is not consulted.
func Marshal(o *Operator) ([]byte, error) {
	if err := checkEncodable(o); err != nil {
		return nil, err
	}
	args := o.Args.String()

	var b bytes.Buffer
	b.Grow(len(Magic) + len(o.Command) + len(args) + len(o.Content) + 24)
	b.WriteString(Magic)
	b.WriteString(o.Command)
	b.WriteByte(fieldSep)
	b.WriteString(args)
	b.WriteByte(fieldSep)
	b.WriteString(strconv.Itoa(len(o.Content)))
	b.WriteByte(fieldSep)
	b.Write(o.Content)
	return b.Bytes(), nil
}

// Encode writes one record to w. Nothing is written if o cannot be encoded.
func Encode(w io.Writer, o *Operator) error {
	data, err := Marshal(o)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// CheckTemplate reports whether tmpl can be written as the command field
// of a record.
func CheckTemplate(tmpl string) error {
	if strings.IndexByte(tmpl, fieldSep) >= 0 {
		return protocolErrorf("command template %q contains %q", tmpl, fieldSep)
	}
	return nil
}

// checkEncodable rejects header fields that would not survive decoding.
func checkEncodable(o *Operator) error {
	if err := CheckTemplate(o.Command); err != nil {
		return err
	}
	for k, v := range o.Args {
		if k == "" || strings.ContainsAny(k, string([]byte{fieldSep, argSep, kvSep})) {
			return protocolErrorf("argument name %q is empty or contains a delimiter", k)
		}
		if strings.ContainsAny(v, string([]byte{fieldSep, argSep})) {
			return protocolErrorf("argument %s value %q contains a delimiter", k, v)
		}
	}
	return nil
}

type (
	// Decoder reads consecutive records from a stream.
	Decoder struct {
		r        *bufio.Reader
		maxField int
	}

	// DecoderOption configures a Decoder.
	DecoderOption func(*Decoder)
)

// WithMaxHeaderField overrides DefaultMaxHeaderField.
func WithMaxHeaderField(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.maxField = n
		}
	}
}

// NewDecoder returns a decoder reading from r. A *bufio.Reader is used
// as is; other readers are wrapped once, so keep using the same Decoder
// for every record of a stream.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	d := &Decoder{r: br, maxField: DefaultMaxHeaderField}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deserialize decodes a single record from r. See Decoder.Decode.
func Deserialize(r io.Reader) (*Operator, error) {
	return NewDecoder(r).Decode()
}

// Decode reads the next record. It returns io.EOF, and no operator,
// when the stream ends cleanly before a record starts. Any other
// malformation is an ErrProtocol error. On success the stream is left
// at the first byte after the record's content.
func (d *Decoder) Decode() (*Operator, error) {
	if _, err := d.r.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	var marker [len(Magic)]byte
	if _, err := io.ReadFull(d.r, marker[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, protocolErrorf("magic marker not found")
		}
		return nil, err
	}
	if string(marker[:]) != Magic {
		return nil, protocolErrorf("magic marker not found")
	}

	command, err := d.readField("command")
	if err != nil {
		return nil, err
	}
	rawArgs, err := d.readField("arguments")
	if err != nil {
		return nil, err
	}
	args, err := ParseArgs(rawArgs)
	if err != nil {
		return nil, err
	}
	rawLen, err := d.readField("content length")
	if err != nil {
		return nil, err
	}
	n, err := parseLength(rawLen)
	if err != nil {
		return nil, err
	}

	var content bytes.Buffer
	copied, err := io.CopyN(&content, d.r, int64(n))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, protocolErrorf("truncated content: read %d of %d bytes", copied, n)
		}
		return nil, err
	}

	return &Operator{
		Command:    command,
		Args:       args,
		Content:    content.Bytes(),
		ContentLen: n,
	}, nil
}

// readField reads up to and consumes the next field separator.
func (d *Decoder) readField(name string) (string, error) {
	var b strings.Builder
	for {
		c, err := d.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", protocolErrorf("truncated record in %s field", name)
			}
			return "", err
		}
		if c == fieldSep {
			return b.String(), nil
		}
		if b.Len() >= d.maxField {
			return "", protocolErrorf("%s field exceeds %d bytes", name, d.maxField)
		}
		b.WriteByte(c)
	}
}

func parseLength(s string) (int, error) {
	if s == "" {
		return 0, protocolErrorf("empty content length")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, protocolErrorf("content length %q is not a non-negative integer", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, protocolErrorf("content length %q: %v", s, err)
	}
	return n, nil
}

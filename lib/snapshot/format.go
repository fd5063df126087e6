// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/tango/lib/codec"
	"github.com/bureau-foundation/tango/lib/tango"
)

const (
	magic         = "TGSNAP"
	formatVersion = 1
	trailerMarker = 0xFF

	// DefaultBlockSize is the raw size at which a Writer flushes a
	// block.
	DefaultBlockSize = 64 << 10

	// maxBlockSize bounds the lengths a Reader accepts from a block
	// header.
	maxBlockSize = 64 << 20
)

var (
	// ErrNotSnapshot is returned for a stream without the snapshot
	// header.
	ErrNotSnapshot = errors.New("snapshot: not a snapshot file")

	// ErrTruncated is returned when the stream ends before the
	// trailer.
	ErrTruncated = errors.New("snapshot: truncated file")

	// ErrDigestMismatch is returned when the trailer digest does not
	// match the blocks.
	ErrDigestMismatch = errors.New("snapshot: digest mismatch")
)

// Reading is one recorded attribute reading.
type Reading struct {
	Device string
	Data   tango.AttributeData
}

// record is the stored form of a Reading.
type record struct {
	Device    string          `cbor:"device"`
	Name      string          `cbor:"name"`
	Value     codec.Envelope  `cbor:"value"`
	Written   *codec.Envelope `cbor:"written,omitempty"`
	Format    uint8           `cbor:"format"`
	Quality   uint8           `cbor:"quality"`
	DimX      int             `cbor:"dim_x"`
	DimY      int             `cbor:"dim_y"`
	TimeStamp time.Time       `cbor:"time"`
}

func newRecord(reading Reading) (record, error) {
	data := reading.Data
	if data.Data == nil {
		return record{}, fmt.Errorf("snapshot: reading of %s/%s has no value", reading.Device, data.Name)
	}
	value, err := codec.Wrap(data.Data)
	if err != nil {
		return record{}, err
	}
	stored := record{
		Device:    reading.Device,
		Name:      data.Name,
		Value:     value,
		Format:    uint8(data.Format),
		Quality:   uint8(data.Quality),
		DimX:      data.DimX,
		DimY:      data.DimY,
		TimeStamp: data.TimeStamp,
	}
	if data.WrittenData != nil {
		written, err := codec.Wrap(data.WrittenData)
		if err != nil {
			return record{}, err
		}
		stored.Written = &written
	}
	return stored, nil
}

func (stored record) reading() (Reading, error) {
	value, err := attrValue(stored.Value)
	if err != nil {
		return Reading{}, fmt.Errorf("snapshot: %s/%s: %w", stored.Device, stored.Name, err)
	}
	reading := Reading{
		Device: stored.Device,
		Data: tango.AttributeData{
			Name:      stored.Name,
			Data:      value,
			Format:    tango.AttrDataFormat(stored.Format),
			Quality:   tango.AttrQuality(stored.Quality),
			DimX:      stored.DimX,
			DimY:      stored.DimY,
			TimeStamp: stored.TimeStamp,
		},
	}
	if stored.Written != nil {
		written, err := attrValue(*stored.Written)
		if err != nil {
			return Reading{}, fmt.Errorf("snapshot: %s/%s set point: %w", stored.Device, stored.Name, err)
		}
		reading.Data.WrittenData = written
	}
	return reading, nil
}

func attrValue(envelope codec.Envelope) (tango.AttrValue, error) {
	value, err := envelope.Unwrap()
	if err != nil {
		return nil, err
	}
	attr, ok := value.(tango.AttrValue)
	if !ok {
		return nil, fmt.Errorf("%s is not an attribute value", envelope.Type)
	}
	return attr, nil
}

// Writer writes a snapshot stream. Close must be called to write the
// trailer; it does not close the underlying writer.
type Writer struct {
	output      io.Writer
	compression Compression
	blockSize   int
	block       bytes.Buffer
	encoder     *codec.Encoder
	digest      *blake3.Hasher
	count       int
	closed      bool
}

// NewWriter writes the snapshot header to output and returns a Writer
// compressing blocks with compression.
func NewWriter(output io.Writer, compression Compression) (*Writer, error) {
	if compression > CompressionZstd {
		return nil, fmt.Errorf("snapshot: unsupported compression %s", compression)
	}
	writer := &Writer{
		output:      output,
		compression: compression,
		blockSize:   DefaultBlockSize,
		digest:      newDigester(),
	}
	writer.encoder = codec.NewEncoder(&writer.block)
	header := append([]byte(magic), formatVersion, byte(compression))
	if _, err := output.Write(header); err != nil {
		return nil, fmt.Errorf("snapshot: writing header: %w", err)
	}
	return writer, nil
}

// Write appends a reading.
func (writer *Writer) Write(reading Reading) error {
	if writer.closed {
		return errors.New("snapshot: write after Close")
	}
	stored, err := newRecord(reading)
	if err != nil {
		return err
	}
	if err := writer.encoder.Encode(stored); err != nil {
		return fmt.Errorf("snapshot: encoding %s/%s: %w", reading.Device, reading.Data.Name, err)
	}
	writer.count++
	if writer.block.Len() >= writer.blockSize {
		return writer.flush()
	}
	return nil
}

// Count returns the number of readings written so far.
func (writer *Writer) Count() int {
	return writer.count
}

// flush writes the buffered records as one block.
func (writer *Writer) flush() error {
	if writer.block.Len() == 0 {
		return nil
	}
	raw := writer.block.Bytes()
	writer.digest.Write(raw)

	compression := writer.compression
	stored, err := compressBlock(raw, compression)
	if errors.Is(err, errIncompressible) {
		compression, stored = CompressionNone, raw
	} else if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	header := make([]byte, 0, 1+2*binary.MaxVarintLen64)
	header = append(header, byte(compression))
	header = binary.AppendUvarint(header, uint64(len(raw)))
	header = binary.AppendUvarint(header, uint64(len(stored)))
	if _, err := writer.output.Write(header); err != nil {
		return fmt.Errorf("snapshot: writing block header: %w", err)
	}
	if _, err := writer.output.Write(stored); err != nil {
		return fmt.Errorf("snapshot: writing block: %w", err)
	}
	writer.block.Reset()
	return nil
}

// Close flushes the last block and writes the trailer. It returns the
// digest of the snapshot.
func (writer *Writer) Close() (Digest, error) {
	if writer.closed {
		return Digest{}, errors.New("snapshot: already closed")
	}
	writer.closed = true
	if err := writer.flush(); err != nil {
		return Digest{}, err
	}
	digest := sum(writer.digest)
	if _, err := writer.output.Write(append([]byte{trailerMarker}, digest[:]...)); err != nil {
		return Digest{}, fmt.Errorf("snapshot: writing trailer: %w", err)
	}
	return digest, nil
}

// Reader reads a snapshot stream written by Writer.
type Reader struct {
	input       *bufio.Reader
	compression Compression
	digest      *blake3.Hasher
	block       *codec.Decoder
	verified    Digest
	done        bool
}

// NewReader reads and checks the snapshot header.
func NewReader(input io.Reader) (*Reader, error) {
	reader := &Reader{input: bufio.NewReader(input), digest: newDigester()}
	header := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(reader.input, header); err != nil {
		return nil, ErrNotSnapshot
	}
	if string(header[:len(magic)]) != magic {
		return nil, ErrNotSnapshot
	}
	if version := header[len(magic)]; version != formatVersion {
		return nil, fmt.Errorf("snapshot: unsupported format version %d", version)
	}
	reader.compression = Compression(header[len(magic)+1])
	return reader, nil
}

// Compression returns the compression the file was written with.
func (reader *Reader) Compression() Compression {
	return reader.compression
}

// Next returns the next reading. At the end of a file whose digest
// checks out it returns io.EOF.
func (reader *Reader) Next() (Reading, error) {
	for {
		if reader.done {
			return Reading{}, io.EOF
		}
		if reader.block != nil {
			var stored record
			err := reader.block.Decode(&stored)
			if err == nil {
				return stored.reading()
			}
			if !errors.Is(err, io.EOF) {
				return Reading{}, fmt.Errorf("snapshot: decoding record: %w", err)
			}
			reader.block = nil
		}
		if err := reader.nextBlock(); err != nil {
			return Reading{}, err
		}
	}
}

// Digest returns the verified digest once Next has returned io.EOF.
func (reader *Reader) Digest() Digest {
	return reader.verified
}

// nextBlock loads the next block, or checks the trailer.
func (reader *Reader) nextBlock() error {
	marker, err := reader.input.ReadByte()
	if err != nil {
		return ErrTruncated
	}
	if marker == trailerMarker {
		var recorded Digest
		if _, err := io.ReadFull(reader.input, recorded[:]); err != nil {
			return ErrTruncated
		}
		if computed := sum(reader.digest); computed != recorded {
			return fmt.Errorf("%w: trailer %s, content %s", ErrDigestMismatch, recorded, computed)
		}
		reader.verified = recorded
		reader.done = true
		return nil
	}

	rawLength, err := binary.ReadUvarint(reader.input)
	if err != nil {
		return ErrTruncated
	}
	storedLength, err := binary.ReadUvarint(reader.input)
	if err != nil {
		return ErrTruncated
	}
	if rawLength > maxBlockSize || storedLength > maxBlockSize {
		return fmt.Errorf("snapshot: block of %d/%d bytes exceeds the %d byte limit", rawLength, storedLength, maxBlockSize)
	}
	stored := make([]byte, storedLength)
	if _, err := io.ReadFull(reader.input, stored); err != nil {
		return ErrTruncated
	}
	raw, err := decompressBlock(stored, Compression(marker), int(rawLength))
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	reader.digest.Write(raw)
	reader.block = codec.NewDecoder(bytes.NewReader(raw))
	return nil
}

// ReadAll reads every reading of a snapshot and verifies its digest.
func ReadAll(input io.Reader) ([]Reading, Digest, error) {
	reader, err := NewReader(input)
	if err != nil {
		return nil, Digest{}, err
	}
	var readings []Reading
	for {
		reading, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return readings, reader.Digest(), nil
		}
		if err != nil {
			return readings, Digest{}, err
		}
		readings = append(readings, reading)
	}
}

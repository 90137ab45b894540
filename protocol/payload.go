package protocol

import (
	"encoding/binary"
	"fmt"
)

// Chunk is the payload of a CHNK frame: the rows of one partition plus
// the two rows bordering it.
type Chunk struct {
	Cells  [][]uint8
	Top    []uint8 // row above Cells[0], toroidal at the grid edge
	Bottom []uint8 // row below the last chunk row, toroidal at the grid edge
}

// Cell array payloads open with big-endian u32 row and column counts.
const dimsSize = 8

// EncodeRows packs a rectangular cell array as its row and column counts
// followed by the cells in row-major order.
func EncodeRows(cells [][]uint8) []byte {
	rows := len(cells)
	cols := 0
	if rows > 0 {
		cols = len(cells[0])
	}
	buf := make([]byte, dimsSize, dimsSize+rows*cols)
	binary.BigEndian.PutUint32(buf[0:4], uint32(rows))
	binary.BigEndian.PutUint32(buf[4:8], uint32(cols))
	for _, row := range cells {
		buf = append(buf, row...)
	}
	return buf
}

// DecodeRows unpacks an EncodeRows payload. The byte count must match
// the announced shape exactly.
func DecodeRows(payload []byte) ([][]uint8, error) {
	cells, rest, err := decodeRows(payload)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after cell array", ErrMalformed, len(rest))
	}
	return cells, nil
}

// EncodeChunk packs the chunk cells followed by the top and bottom ghost
// rows, one grid width each.
func EncodeChunk(c Chunk) []byte {
	cols := len(c.Cells[0])
	buf := EncodeRows(c.Cells)
	buf = append(buf, c.Top[0:cols]...)
	buf = append(buf, c.Bottom[0:cols]...)
	return buf
}

// DecodeChunk unpacks an EncodeChunk payload. A chunk must carry at
// least one row, at least one column and exactly two ghost rows.
func DecodeChunk(payload []byte) (Chunk, error) {
	cells, rest, err := decodeRows(payload)
	if err != nil {
		return Chunk{}, err
	}
	if len(cells) == 0 || len(cells[0]) == 0 {
		return Chunk{}, fmt.Errorf("%w: chunk with empty shape", ErrMalformed)
	}
	cols := len(cells[0])
	if len(rest) != 2*cols {
		return Chunk{}, fmt.Errorf("%w: chunk carries %d ghost bytes, want %d", ErrMalformed, len(rest), 2*cols)
	}
	return Chunk{Cells: cells, Top: rest[0:cols], Bottom: rest[cols : 2*cols]}, nil
}

// decodeRows reads one cell array off the front of payload and returns
// the remaining bytes. The returned rows alias the payload buffer;
// ownership transfers to the caller.
func decodeRows(payload []byte) (cells [][]uint8, rest []byte, err error) {
	if len(payload) < dimsSize {
		return nil, nil, fmt.Errorf("%w: cell array header truncated at %d bytes", ErrMalformed, len(payload))
	}
	rows := int(binary.BigEndian.Uint32(payload[0:4]))
	cols := int(binary.BigEndian.Uint32(payload[4:8]))
	need := int64(rows) * int64(cols)
	if need > int64(len(payload)-dimsSize) || int64(rows) > int64(len(payload)) {
		return nil, nil, fmt.Errorf("%w: cell array announces %dx%d but carries %d bytes",
			ErrMalformed, rows, cols, len(payload)-dimsSize)
	}
	data := payload[dimsSize:]
	cells = make([][]uint8, rows)
	for i := 0; i != rows; i++ {
		cells[i] = data[0:cols]
		data = data[cols:]
	}
	return cells, data, nil
}

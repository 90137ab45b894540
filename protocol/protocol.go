// Package protocol owns the wire contract between the master and its
// workers: framed, type-tagged messages and the fixed-schema encoding
// of 2D cell arrays.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MsgType is the 4-byte ASCII tag opening every frame.
type MsgType [4]byte

var (
	MsgChunk  = MsgType{'C', 'H', 'N', 'K'}
	MsgUpdate = MsgType{'U', 'P', 'D', 'T'}
	MsgStop   = MsgType{'S', 'T', 'O', 'P'}
	MsgAck    = MsgType{'A', 'C', 'K', ' '} // reserved, never sent
)

func (t MsgType) String() string {
	return string(t[:])
}

func (t MsgType) known() bool {
	return t == MsgChunk || t == MsgUpdate || t == MsgStop || t == MsgAck
}

// Frame header: the type tag followed by a big-endian u32 payload length.
const headerSize = 8

// maxPayload caps the announced payload length. Anything larger means a
// corrupt header.
const maxPayload = 1 << 30

var (
	// ErrClosed reports a peer that closed the stream cleanly between
	// messages.
	ErrClosed = errors.New("protocol: connection closed by peer")

	// ErrConnectionBroken reports a stream cut mid-message: incomplete
	// data received.
	ErrConnectionBroken = errors.New("protocol: connection broken: incomplete data received")

	// ErrMalformed reports data that violates the wire contract.
	ErrMalformed = errors.New("protocol: malformed message")
)

// Send frames payload under the given tag and writes header and payload
// in a single call.
func Send(w io.Writer, t MsgType, payload []byte) error {
	buf := make([]byte, headerSize+len(payload))
	copy(buf[0:4], t[:])
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("protocol: send %v: %w", t, err)
	}
	return nil
}

// Recv reads one framed message, looping over partial reads until the
// header and the payload are complete. A clean close before any header
// byte yields ErrClosed; a close after partial data yields
// ErrConnectionBroken; an unknown tag or an absurd length yields an
// ErrMalformed error.
func Recv(r io.Reader) (MsgType, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return MsgType{}, nil, ErrClosed
		}
		if err == io.ErrUnexpectedEOF {
			return MsgType{}, nil, ErrConnectionBroken
		}
		return MsgType{}, nil, fmt.Errorf("protocol: read header: %w", err)
	}

	var t MsgType
	copy(t[:], header[0:4])
	length := binary.BigEndian.Uint32(header[4:8])
	if !t.known() {
		return MsgType{}, nil, fmt.Errorf("%w: unknown type tag %q", ErrMalformed, header[0:4])
	}
	if length > maxPayload {
		return MsgType{}, nil, fmt.Errorf("%w: %v frame announces %d payload bytes", ErrMalformed, t, length)
	}
	if length == 0 {
		return t, nil, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return MsgType{}, nil, ErrConnectionBroken
		}
		return MsgType{}, nil, fmt.Errorf("protocol: read payload: %w", err)
	}
	return t, payload, nil
}

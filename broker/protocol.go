package broker

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CommandLength is the fixed width, in bytes, of every ASCII command field in
// the wire protocol, per spec.md §6.2.
const CommandLength = 32

// Command is one of the fixed 32-byte protocol verbs.
type Command string

const (
	// CmdGetSeed asks the server for a fresh RNG seed.
	CmdGetSeed Command = "getSeed"
	// CmdReady asks the server for the next unit of work.
	CmdReady Command = "ready"
	// CmdResult returns a completed work item to the server.
	CmdResult Command = "result"
	// CmdCompute is the server's reply to ready when work is available.
	CmdCompute Command = "compute"
	// CmdNoSuccess is the server's reply to ready when no work is available.
	CmdNoSuccess Command = "nosuccess"
)

// SerializationMode names the encoding used for an individual payload.
type SerializationMode string

const (
	// SerializationText is a human-readable encoding.
	SerializationText SerializationMode = "text"
	// SerializationXML wraps the payload as XML.
	SerializationXML SerializationMode = "xml"
	// SerializationBinary is a compact binary encoding.
	SerializationBinary SerializationMode = "binary"
)

// PadField right-pads s with spaces to exactly CommandLength bytes. s must
// not already exceed CommandLength bytes.
func PadField(s string) ([]byte, error) {
	if len(s) > CommandLength {
		return nil, errors.Errorf("field %q exceeds wire protocol field width of %d bytes", s, CommandLength)
	}
	buf := make([]byte, CommandLength)
	copy(buf, s)
	for i := len(s); i < CommandLength; i++ {
		buf[i] = ' '
	}
	return buf, nil
}

// ReadField reads exactly CommandLength bytes from r and trims trailing
// padding spaces.
func ReadField(r io.Reader) (string, error) {
	buf := make([]byte, CommandLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errors.Wrap(err, "failed to read 32-byte protocol field")
	}
	return strings.TrimRight(string(buf), " "), nil
}

// WriteField writes s as a padded CommandLength-byte field to w.
func WriteField(w io.Writer, s string) error {
	field, err := PadField(s)
	if err != nil {
		return err
	}
	_, err = w.Write(field)
	return err
}

// WriteSizeField writes a decimal size as a padded field.
func WriteSizeField(w io.Writer, size int) error {
	return WriteField(w, strconv.Itoa(size))
}

// ReadSizeField reads a decimal size field.
func ReadSizeField(r io.Reader) (int, error) {
	s, err := ReadField(r)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(err, "malformed size field %q", s)
	}
	return n, nil
}

// ComputeReply is the full server->client payload sent in response to a
// successful `ready`, per spec.md §6.2 step 3.
type ComputeReply struct {
	Size              int
	Serialization     SerializationMode
	PortID            PortID
	Payload           []byte
}

// WriteComputeReply writes the compute/<size>/<mode>/<port>/<payload>
// sequence to w.
func WriteComputeReply(w io.Writer, reply ComputeReply) error {
	if err := WriteField(w, string(CmdCompute)); err != nil {
		return err
	}
	if err := WriteSizeField(w, len(reply.Payload)); err != nil {
		return err
	}
	if err := WriteField(w, string(reply.Serialization)); err != nil {
		return err
	}
	if err := WriteField(w, fmt.Sprintf("%d", reply.PortID)); err != nil {
		return err
	}
	_, err := w.Write(reply.Payload)
	return err
}

// ReadComputeReply reads the fields following an already-consumed `compute`
// command field.
func ReadComputeReply(r io.Reader) (ComputeReply, error) {
	var reply ComputeReply
	size, err := ReadSizeField(r)
	if err != nil {
		return reply, err
	}
	modeStr, err := ReadField(r)
	if err != nil {
		return reply, err
	}
	portStr, err := ReadField(r)
	if err != nil {
		return reply, err
	}
	portID, err := strconv.ParseInt(strings.TrimSpace(portStr), 10, 64)
	if err != nil {
		return reply, errors.Wrapf(err, "malformed port id field %q", portStr)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return reply, errors.Wrap(err, "failed to read payload")
	}
	reply.Size = size
	reply.Serialization = SerializationMode(modeStr)
	reply.PortID = PortID(portID)
	reply.Payload = payload
	return reply, nil
}

// ResultMessage is the client->server payload for a `result` transaction,
// per spec.md §6.2 step 4: sent as one gather-write of
// result+port-id+size+payload.
type ResultMessage struct {
	PortID  PortID
	Payload []byte
}

// WriteResultMessage writes the full result transaction to w in one call,
// mirroring the single gather-write the spec requires of the client.
func WriteResultMessage(w io.Writer, msg ResultMessage) error {
	bw := bufio.NewWriter(w)
	if err := WriteField(bw, string(CmdResult)); err != nil {
		return err
	}
	if err := WriteField(bw, fmt.Sprintf("%d", msg.PortID)); err != nil {
		return err
	}
	if err := WriteSizeField(bw, len(msg.Payload)); err != nil {
		return err
	}
	if _, err := bw.Write(msg.Payload); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadResultMessage reads the fields following an already-consumed `result`
// command field.
func ReadResultMessage(r io.Reader) (ResultMessage, error) {
	var msg ResultMessage
	portStr, err := ReadField(r)
	if err != nil {
		return msg, err
	}
	portID, err := strconv.ParseInt(strings.TrimSpace(portStr), 10, 64)
	if err != nil {
		return msg, errors.Wrapf(err, "malformed port id field %q", portStr)
	}
	size, err := ReadSizeField(r)
	if err != nil {
		return msg, err
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return msg, errors.Wrap(err, "failed to read result payload")
	}
	msg.PortID = PortID(portID)
	msg.Payload = payload
	return msg, nil
}

// Codec marshals and unmarshals individual payloads for the wire protocol.
// The core treats serialization as an external collaborator concern (spec.md
// §1); Codec is the seam a caller plugs a domain-specific implementation into.
type Codec interface {
	Encode(mode SerializationMode, payload interface{}) ([]byte, error)
	Decode(mode SerializationMode, data []byte, out interface{}) error
}

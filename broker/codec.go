package broker

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"encoding/xml"

	"github.com/pkg/errors"
)

// WireIndividual is the generic, domain-agnostic wire representation of an
// individual's mutable state: its parameter vector, its fitness vector, and
// enough bookkeeping to let the requesting side reconstruct an Individual via
// LoadFrom. Concrete encodings beyond this generic shape are an external
// collaborator's concern (spec.md §1); callers with a richer representation
// provide their own Codec.
type WireIndividual struct {
	XMLName              xml.Name  `json:"-" xml:"individual"`
	Params               []float64 `json:"params" xml:"params>value"`
	FitnessVector        []float64 `json:"fitness" xml:"fitness>value"`
	ProcessingSuccessful bool      `json:"processing_successful" xml:"processingSuccessful"`
	// Index carries the dispatching range position so a result can be
	// matched back to the pending work item it completes; the wire protocol
	// itself (spec.md §6.2) only frames port-id, not item identity, so this
	// travels inside the payload we control.
	Index int `json:"index" xml:"index"`
}

// DefaultCodec implements Codec for WireIndividual using gob for binary,
// JSON for text, and XML for xml, matching the three serialization modes
// named in spec.md §6.3.
type DefaultCodec struct{}

// Encode marshals payload (expected to be a WireIndividual) per mode.
func (DefaultCodec) Encode(mode SerializationMode, payload interface{}) ([]byte, error) {
	switch mode {
	case SerializationBinary:
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
			return nil, errors.Wrap(err, "gob encode failed")
		}
		return buf.Bytes(), nil
	case SerializationText:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "json encode failed")
		}
		return data, nil
	case SerializationXML:
		data, err := xml.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "xml encode failed")
		}
		return data, nil
	default:
		return nil, errors.Errorf("unsupported serialization mode: %q", mode)
	}
}

// Decode unmarshals data into out (expected to be *WireIndividual) per mode.
func (DefaultCodec) Decode(mode SerializationMode, data []byte, out interface{}) error {
	switch mode {
	case SerializationBinary:
		return errors.Wrap(gob.NewDecoder(bytes.NewReader(data)).Decode(out), "gob decode failed")
	case SerializationText:
		return errors.Wrap(json.Unmarshal(data, out), "json decode failed")
	case SerializationXML:
		return errors.Wrap(xml.Unmarshal(data, out), "xml decode failed")
	default:
		return errors.Errorf("unsupported serialization mode: %q", mode)
	}
}

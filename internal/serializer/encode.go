package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shape-editor/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format names an interchange encoding of the model.
type Format string

const (
	FormatLua     Format = "lua"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatMsgpack:
		return "application/msgpack"
	default:
		return "text/x-lua"
	}
}

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatLua, FormatJSON, FormatYAML, FormatMsgpack:
		return Format(name), nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported format: %s", name)
}

// Encode renders file in the given format.
func Encode(file *models.ShapesFile, f Format) ([]byte, error) {
	switch f {
	case FormatLua:
		return []byte(Serialize(file)), nil
	case FormatJSON:
		return EncodeJSON(file)
	case FormatYAML:
		return EncodeYAML(file)
	case FormatMsgpack:
		return EncodeMsgpack(file)
	}
	return nil, fmt.Errorf("unsupported format: %s", f)
}

func EncodeJSON(file *models.ShapesFile) ([]byte, error) {
	return json.MarshalIndent(file, "", "  ")
}

func EncodeYAML(file *models.ShapesFile) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeMsgpack uses the json tag names so msgpack and JSON clients see the
// same keys.
func EncodeMsgpack(file *models.ShapesFile) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("encode msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeJSON reads a model document.
func DecodeJSON(r io.Reader) (*models.ShapesFile, error) {
	file := models.NewShapesFile()
	if err := json.NewDecoder(r).Decode(file); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return file, nil
}

// DecodeYAML reads a model document written by EncodeYAML.
func DecodeYAML(r io.Reader) (*models.ShapesFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	file := models.NewShapesFile()
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return file, nil
}

// DecodeMsgpack reads a document written by EncodeMsgpack.
func DecodeMsgpack(r io.Reader) (*models.ShapesFile, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	file := models.NewShapesFile()
	if err := dec.Decode(file); err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	return file, nil
}

package rules // import "github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/golang/snappy"
)

// Encode returns the JSON array the proxy reads. A nil slice encodes as [].
func Encode(rs []Rule) ([]byte, error) {
	if rs == nil {
		rs = []Rule{}
	}
	return json.Marshal(rs)
}

// EncodeCompressed is Encode followed by snappy block compression,
// for project configs stored in a shared cache.
func EncodeCompressed(rs []Rule) ([]byte, error) {
	data, err := Encode(rs)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, data), nil
}

func Decode(data []byte) ([]Rule, error) {
	var rs []Rule
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("rules: error unmarshaling json: %w", err)
	}
	return rs, nil
}

func DecodeCompressed(data []byte) ([]Rule, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("rules: error decompressing: %w", err)
	}
	return Decode(decompressed)
}

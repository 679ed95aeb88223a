package tools

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode fills out from args, accepting loosely typed values from the model.
func Decode(args Args, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(args)); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

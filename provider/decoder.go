package provider

import (
	"reflect"

	"github.com/kbukum/rulekit/codec"
)

// DecoderFor returns a Decoder that unmarshals payloads into a P with c.
// It pairs with an Encode method that marshals the value with the same
// codec.
func DecoderFor[P Provider](c codec.Codec) Decoder[P] {
	return func(payload []byte) (P, error) {
		if reflect.TypeFor[P]().Kind() == reflect.Pointer {
			p := zero[P]()
			if err := c.Unmarshal(payload, p); err != nil {
				var none P
				return none, err
			}
			return p, nil
		}
		var p P
		if err := c.Unmarshal(payload, &p); err != nil {
			var none P
			return none, err
		}
		return p, nil
	}
}

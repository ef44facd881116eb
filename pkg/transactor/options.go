/**
 * @description
 * This file implements option resolution for the transactor core. Each
 * gateway declares its defaults; the raw per-call option map is decoded over
 * those defaults with mapstructure in strict mode, so unknown keys are
 * rejected and anything the caller omits keeps its declared default.
 *
 * @dependencies
 * - github.com/mitchellh/mapstructure: strict map-to-struct decoding.
 */

package transactor

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Options is the resolved per-call configuration surface shared by all
// gateways. Gateways that do not use a given option simply ignore it in
// their defaults.
type Options struct {
	// Tokenize asks the gateway to store the account in its vault as part
	// of this call. Set internally by the tokenization workflow.
	Tokenize bool `mapstructure:"tokenize"`

	// EnableAVS includes the account's address fields for verification.
	EnableAVS bool `mapstructure:"enable_avs"`

	// EnableCVV includes the card verification value in the request.
	EnableCVV bool `mapstructure:"enable_cvv"`

	// PostURL is the gateway endpoint the request is posted to.
	PostURL string `mapstructure:"post_url"`
}

// resolveOptions applies raw caller options over the gateway's defaults.
// Unknown keys and mistyped values are resolution errors.
func resolveOptions(defaults Options, raw map[string]any) (Options, error) {
	resolved := defaults
	if len(raw) == 0 {
		return resolved, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &resolved,
		ErrorUnused: true,
	})
	if err != nil {
		return Options{}, fmt.Errorf("failed to build options decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Options{}, fmt.Errorf("failed to resolve options: %w", err)
	}
	return resolved, nil
}

package vecplot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Variant selects how labels and the title are derived from the input.
type Variant int

const (
	// VariantLabeled requires x_label and y_label and titles the chart
	// "{y_label} vs. {x_label}".
	VariantLabeled Variant = iota

	// VariantFixed ignores any labels in the input. The axes are always "x" and
	// "y" and the title is always FixedTitle.
	VariantFixed
)

const (
	FixedTitle  = "Rust Vec<f64> vs Vec<f64>"
	FixedXLabel = "x"
	FixedYLabel = "y"
)

func (v Variant) String() string {
	switch v {
	case VariantLabeled:
		return "labeled"
	case VariantFixed:
		return "fixed"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

var (
	// ErrMalformedJSON marks every error caused by input that is not a JSON
	// object of the expected shape.
	ErrMalformedJSON = errors.New("malformed plot request")

	// ErrLengthMismatch is returned when x and y have different lengths.
	ErrLengthMismatch = errors.New("x and y must have the same length")
)

// MissingFieldError is returned when a required key is absent from the input
// object (or is null).
type MissingFieldError struct {
	Key string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required key %q", e.Key)
}

// PlotRequest is decoded from stdin and consumed by a single render.
type PlotRequest struct {
	X      []float64
	Y      []float64
	XLabel string
	YLabel string

	Variant Variant
}

// A JSON number, or null. serde_json writes non-finite floats as null, so
// null is read back as NaN rather than rejected. Numbers too large for a
// float64 become infinities.
type nullableFloat float64

func (f *nullableFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nullableFloat(math.NaN())
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		inf, parseErr := strconv.ParseFloat(string(data), 64)
		if !errors.Is(parseErr, strconv.ErrRange) || !math.IsInf(inf, 0) {
			return err
		}
		v = inf
	}

	*f = nullableFloat(v)
	return nil
}

// Field order is the order the keys are looked up, which decides which key is
// reported when more than one is missing.
type labeledPayload struct {
	X      []nullableFloat `json:"x" validate:"required"`
	XLabel *string         `json:"x_label" validate:"required"`
	Y      []nullableFloat `json:"y" validate:"required"`
	YLabel *string         `json:"y_label" validate:"required"`
}

type fixedPayload struct {
	X []nullableFloat `json:"x" validate:"required"`
	Y []nullableFloat `json:"y" validate:"required"`
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()

	// Report the JSON key rather than the Go field name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// DecodePlotRequest parses the raw stdin text for the given variant.
//
// Errors are either marked with ErrMalformedJSON (not JSON, not an object, or
// a value of the wrong type) or a *MissingFieldError naming the first absent
// key.
func DecodePlotRequest(data []byte, variant Variant) (*PlotRequest, error) {
	switch variant {
	case VariantLabeled:
		var payload labeledPayload
		if err := bind(data, &payload); err != nil {
			return nil, err
		}

		return &PlotRequest{
			X:       toFloats(payload.X),
			Y:       toFloats(payload.Y),
			XLabel:  *payload.XLabel,
			YLabel:  *payload.YLabel,
			Variant: variant,
		}, nil
	case VariantFixed:
		var payload fixedPayload
		if err := bind(data, &payload); err != nil {
			return nil, err
		}

		return &PlotRequest{
			X:       toFloats(payload.X),
			Y:       toFloats(payload.Y),
			XLabel:  FixedXLabel,
			YLabel:  FixedYLabel,
			Variant: variant,
		}, nil
	default:
		return nil, errors.Newf("unknown variant %s", variant)
	}
}

func bind(data []byte, payload interface{}) error {
	// json.Unmarshal accepts a bare null without touching payload.
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.Mark(errors.New("plot request is null, expected an object"), ErrMalformedJSON)
	}

	// encoding/json matches keys to struct tags case-insensitively, so only
	// the exact keys are kept before decoding into the payload.
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return errors.Mark(errors.Wrap(err, "cannot decode plot request"), ErrMalformedJSON)
	}

	exact, err := json.Marshal(exactKeys(object, payload))
	if err != nil {
		return errors.Mark(errors.Wrap(err, "cannot decode plot request"), ErrMalformedJSON)
	}

	if err := json.Unmarshal(exact, payload); err != nil {
		return errors.Mark(errors.Wrap(err, "cannot decode plot request"), ErrMalformedJSON)
	}

	err = payloadValidator.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return errors.WithStack(&MissingFieldError{Key: validationErrors[0].Field()})
	}

	return errors.Wrap(err, "cannot validate plot request")
}

// Keeps the entries of object whose key is exactly one of payload's json tags.
func exactKeys(object map[string]json.RawMessage, payload interface{}) map[string]json.RawMessage {
	kept := make(map[string]json.RawMessage)

	typ := reflect.TypeOf(payload).Elem()
	for i := 0; i < typ.NumField(); i++ {
		key := strings.SplitN(typ.Field(i).Tag.Get("json"), ",", 2)[0]
		if value, ok := object[key]; ok {
			kept[key] = value
		}
	}

	return kept
}

func toFloats(values []nullableFloat) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

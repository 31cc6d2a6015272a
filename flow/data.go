package flow

import (
	"encoding/json"
	"fmt"
)

// Data is the immutable generation data of a field. Each strategy has its own
// concrete type; the set is closed.
type Data interface {
	Strategy() Strategy
	isData()
}

// BitmapData samples a raw pixel buffer without resampling.
type BitmapData struct {
	Raster     *Raster `json:"raster"`
	Radius     int     `json:"radius"`
	ForceScale float64 `json:"force_scale"`
}

// ImageData samples an image that was resampled to the canvas size.
type ImageData struct {
	Raster     *Raster `json:"raster"`
	Radius     int     `json:"radius"`
	ForceScale float64 `json:"force_scale"`
}

// PerlinData holds the Perlin noise seed drawn at creation.
type PerlinData struct {
	Resolution float64 `json:"resolution"`
	NoiseSeed  int64   `json:"noise_seed"`
}

// SimplexData holds the OpenSimplex noise seed drawn at creation.
type SimplexData struct {
	Resolution float64 `json:"resolution"`
	NoiseSeed  int64   `json:"noise_seed"`
}

// CliffordData holds Clifford attractor coefficients, each in [-2, 2].
type CliffordData struct {
	Resolution float64 `json:"resolution"`
	A          float64 `json:"a"`
	B          float64 `json:"b"`
	C          float64 `json:"c"`
	D          float64 `json:"d"`
}

// DeJongData holds Peter de Jong attractor coefficients, each in [-4, 4].
type DeJongData struct {
	Resolution float64 `json:"resolution"`
	A          float64 `json:"a"`
	B          float64 `json:"b"`
	C          float64 `json:"c"`
	D          float64 `json:"d"`
}

// CustomData holds a user expression over x, y, width and height.
type CustomData struct {
	Expression string `json:"expression"`
}

func (BitmapData) Strategy() Strategy   { return StrategyBitmap }
func (ImageData) Strategy() Strategy    { return StrategyImage }
func (PerlinData) Strategy() Strategy   { return StrategyPerlin }
func (SimplexData) Strategy() Strategy  { return StrategySimplex }
func (CliffordData) Strategy() Strategy { return StrategyClifford }
func (DeJongData) Strategy() Strategy   { return StrategyDeJong }
func (CustomData) Strategy() Strategy   { return StrategyCustom }

func (BitmapData) isData()   {}
func (ImageData) isData()    {}
func (PerlinData) isData()   {}
func (SimplexData) isData()  {}
func (CliffordData) isData() {}
func (DeJongData) isData()   {}
func (CustomData) isData()   {}

// Envelope carries Data across a process boundary as
// {"strategy": ..., "data": {...}}.
type Envelope struct {
	Data Data
}

type envelopeJSON struct {
	Strategy Strategy        `json:"strategy"`
	Data     json.RawMessage `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Data == nil {
		return nil, fmt.Errorf("%w: no generation data", ErrInvalidParams)
	}
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s data: %w", e.Data.Strategy(), err)
	}
	return json.Marshal(envelopeJSON{Strategy: e.Data.Strategy(), Data: raw})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var env envelopeJSON
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}

	var (
		d   Data
		err error
	)
	switch env.Strategy {
	case StrategyBitmap:
		d, err = decodeData[BitmapData](env.Data)
	case StrategyImage:
		d, err = decodeData[ImageData](env.Data)
	case StrategyPerlin:
		d, err = decodeData[PerlinData](env.Data)
	case StrategySimplex:
		d, err = decodeData[SimplexData](env.Data)
	case StrategyClifford:
		d, err = decodeData[CliffordData](env.Data)
	case StrategyDeJong:
		d, err = decodeData[DeJongData](env.Data)
	case StrategyCustom:
		d, err = decodeData[CustomData](env.Data)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, env.Strategy)
	}
	if err != nil {
		return fmt.Errorf("decoding %s data: %w", env.Strategy, err)
	}

	e.Data = d
	return nil
}

func decodeData[T Data](raw json.RawMessage) (Data, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

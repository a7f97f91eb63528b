package datagen

import (
	"fmt"
	"math"

	"github.com/notargets/AOTKernel/builder"
	"github.com/x448/float16"
)

// Encode rounds v to dt and returns its bit pattern as a signed integer of
// the type's width, the way the test driver reads it back with %hd or %d
func Encode(dt builder.DataType, v float64) (int64, error) {
	switch dt {
	case builder.Float16:
		return int64(int16(float16.Fromfloat32(float32(v)).Bits())), nil
	case builder.BFloat16:
		return int64(int16(bfloat16Bits(float32(v)))), nil
	case builder.Float32:
		return int64(int32(math.Float32bits(float32(v)))), nil
	}
	return 0, fmt.Errorf("cannot encode dtype %v", dt)
}

// Decode interprets a signed bit pattern written by Encode
func Decode(dt builder.DataType, bits int64) (float64, error) {
	switch dt {
	case builder.Float16:
		return float64(float16.Frombits(uint16(bits)).Float32()), nil
	case builder.BFloat16:
		return float64(math.Float32frombits(uint32(uint16(bits)) << 16)), nil
	case builder.Float32:
		return float64(math.Float32frombits(uint32(bits))), nil
	}
	return 0, fmt.Errorf("cannot decode dtype %v", dt)
}

// Quantize returns v as it survives a round trip through dt
func Quantize(dt builder.DataType, v float64) (float64, error) {
	bits, err := Encode(dt, v)
	if err != nil {
		return 0, err
	}
	return Decode(dt, bits)
}

// bfloat16Bits truncates f to its upper 16 bits, rounding to nearest even
func bfloat16Bits(f float32) uint16 {
	u := math.Float32bits(f)
	if math.IsNaN(float64(f)) {
		return uint16(u>>16) | 0x40
	}
	u += 0x7fff + (u>>16)&1
	return uint16(u >> 16)
}

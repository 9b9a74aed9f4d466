package types

import "time"

// Candle is one OHLCV bar. A run treats the candle slice as read-only.
type Candle struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// IsChronological reports whether candles are ordered by strictly increasing time.
// It returns the index of the first out-of-order candle when they are not.
func IsChronological(candles []Candle) (bool, int) {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return false, i
		}
	}

	return true, -1
}

package config

import (
	"errors"
	"io/fs"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

// decimalHook lets YAML and env values such as "10" or 10.5 land in decimal.Decimal fields,
// while keeping viper's default duration and slice conversions.
func decimalHook() mapstructure.DecodeHookFunc {
	toDecimal := func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(decimal.Decimal{}) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return decimal.NewFromString(v)
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		case float64:
			return decimal.NewFromFloat(v), nil
		}
		return data, nil
	}
	return mapstructure.ComposeDecodeHookFunc(
		toDecimal,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

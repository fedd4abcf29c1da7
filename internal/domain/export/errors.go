package export

import "errors"

var (
	ErrUnsupportedFormat = errors.New("export format must be one of csv, text, xlsx")
	ErrInvalidTimeFormat = errors.New("time format must be 24h or 12h")
)

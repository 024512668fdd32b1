package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New はコンポーネント名付きのJSONロガーを返す。
func New(component string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

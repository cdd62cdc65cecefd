package main

import (
	"encoding/json"
	"io"
	"os"
)

func encodeJSONToStdout(value any) error {
	return encodeJSON(os.Stdout, value)
}

func encodeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// accuracyBar draws a crude horizontal bar for a value in [0,1].
func accuracyBar(w io.Writer, v float64) {
	const width = 40
	filled := int(math.Round(math.Min(math.Max(v, 0), 1) * width))
	fmt.Fprintf(w, "%s%s %5.1f%%\n",
		strings.Repeat("█", filled),
		strings.Repeat("─", width-filled),
		100*v)
}

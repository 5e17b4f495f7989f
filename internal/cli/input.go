package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/ltv-backend/internal/tier"
)

// readInput decodes a YAML or JSON file into v, by extension. "-" is stdin.
func readInput(path string, v any) error {
	var b []byte
	var err error
	if path == "-" {
		b, err = readAllStdin()
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(v)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(v)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func readAllStdin() ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(os.Stdin)
	return buf.Bytes(), err
}

// parseCohort reads "source,users,cpi,d1,d1Arpu".
func parseCohort(s string) (tier.CohortRow, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return tier.CohortRow{}, fmt.Errorf("cohort %q: want source,users,cpi,d1,d1Arpu", s)
	}
	var nums [4]float64
	for i, p := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return tier.CohortRow{}, fmt.Errorf("cohort %q: field %d: %w", s, i+2, err)
		}
		nums[i] = v
	}
	return tier.CohortRow{
		Source: strings.TrimSpace(parts[0]),
		Users:  nums[0],
		CPI:    nums[1],
		D1:     nums[2],
		D1ARPU: nums[3],
	}, nil
}

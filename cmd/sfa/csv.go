package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type collection struct {
	series [][]float64
	labels []float64
}

// readCollection reads one series per CSV row. With labelled set the first
// column is taken as the series label.
func readCollection(path string, labelled bool) (*collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	c, err := parseCollection(f, labelled)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

func parseCollection(r io.Reader, labelled bool) (*collection, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	c := &collection{}
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", row+1, j+1, err)
			}
			values[j] = v
		}

		if labelled {
			if len(values) < 2 {
				return nil, fmt.Errorf("row %d: labelled rows need a label and at least one value", row+1)
			}
			c.labels = append(c.labels, values[0])
			values = values[1:]
		}
		c.series = append(c.series, values)
	}

	if len(c.series) == 0 {
		return nil, fmt.Errorf("no series found")
	}
	return c, nil
}

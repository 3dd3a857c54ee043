package binning

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMethod is returned for binning method names outside the supported set.
	ErrUnknownMethod = errors.New("unknown binning method")

	// ErrLabelsRequired is returned when a supervised method is used without labels.
	ErrLabelsRequired = errors.New("labels must be provided for information gain binning")

	// ErrInvalidParameter covers alphabet sizes below 2, empty words and malformed training data.
	ErrInvalidParameter = errors.New("invalid binning parameter")
)

// Method selects how per-letter breakpoints are learned.
type Method int

const (
	EquiDepth Method = iota
	EquiWidth
	InformationGain
	InformationGainMAE
	KMeans
)

var methodNames = map[Method]string{
	EquiDepth:          "equi-depth",
	EquiWidth:          "equi-width",
	InformationGain:    "information-gain",
	InformationGainMAE: "information-gain-mae",
	KMeans:             "kmeans",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m is one of the defined methods
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// Supervised reports whether the method needs a label per training window.
func (m Method) Supervised() bool {
	return m == InformationGain || m == InformationGainMAE
}

// ParseMethod maps a method name such as "equi-depth" to its Method.
func ParseMethod(name string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for m, n := range methodNames {
		if n == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// MarshalText implements encoding.TextMarshaler
func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

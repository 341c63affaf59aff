package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func parseJSON(data []byte) ([]Pair, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return toPairs(records)
}

func parseYAML(data []byte) ([]Pair, error) {
	var records []record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return toPairs(records)
}

type tomlCorpus struct {
	Pair []record `toml:"pair"`
}

func parseTOML(data []byte) ([]Pair, error) {
	var doc tomlCorpus
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Pair == nil {
		return nil, fmt.Errorf("no [[pair]] tables")
	}
	return toPairs(doc.Pair)
}

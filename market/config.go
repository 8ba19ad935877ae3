package market

import (
	"fmt"
	"io/ioutil"

	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"
)

const (
	DefaultMediaKind = "song"
	DefaultListen    = ":7001"
)

// ContractMetadata is the contract level record served to clients. The base
// URI and icon stay mutable by the owner, everything else is fixed at setup.
type ContractMetadata struct {
	Name    string `toml:"name" json:"name"`
	Symbol  string `toml:"symbol" json:"symbol"`
	Icon    string `toml:"icon" json:"icon,omitempty"`
	BaseURI string `toml:"base-uri" json:"base_uri,omitempty"`
}

type Configuration struct {
	Owner            string           `toml:"owner"`
	ByteCost         string           `toml:"byte-cost"`
	MediaKind        string           `toml:"media-kind"`
	EnforceWhitelist bool             `toml:"enforce-whitelist"`
	Listen           string           `toml:"listen"`
	Metadata         ContractMetadata `toml:"metadata"`
}

func Setup(path string) (*Configuration, error) {
	f, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Configuration
	err = toml.Unmarshal(f, &conf)
	if err != nil {
		return nil, err
	}
	if !ValidAccountID(conf.Owner) {
		return nil, fmt.Errorf("invalid owner account %s", conf.Owner)
	}
	if conf.MediaKind == "" {
		conf.MediaKind = DefaultMediaKind
	}
	if conf.Listen == "" {
		conf.Listen = DefaultListen
	}
	if conf.ByteCost == "" {
		conf.ByteCost = "1"
	}
	cost, err := decimal.NewFromString(conf.ByteCost)
	if err != nil || cost.IsNegative() {
		return nil, fmt.Errorf("invalid byte cost %s", conf.ByteCost)
	}
	return &conf, nil
}

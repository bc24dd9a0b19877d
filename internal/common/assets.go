package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"signals-ledger-go/internal/models"

	"gopkg.in/yaml.v2"
)

type AssetsConfig struct {
	Assets []models.AssetConfig `yaml:"assets"`
}

// LoadAssetConfig reads the crypto payment methods the platform accepts.
func LoadAssetConfig(assetsFile string) ([]models.AssetConfig, error) {
	var assetsPath string
	if filepath.IsAbs(assetsFile) {
		assetsPath = assetsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		assetsPath = filepath.Join(wd, assetsFile)
	}

	data, err := os.ReadFile(assetsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", assetsFile, err)
	}
	return ParseAssetConfig(data)
}

func ParseAssetConfig(data []byte) ([]models.AssetConfig, error) {
	var config AssetsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse assets: %w", err)
	}

	methods := make(map[string]int, len(config.Assets))
	for i, asset := range config.Assets {
		if asset.Symbol == "" {
			return nil, fmt.Errorf("asset at index %d missing symbol", i)
		}
		if asset.Network == "" {
			return nil, fmt.Errorf("asset at index %d missing network", i)
		}
		if asset.PaymentMethod == "" {
			asset.PaymentMethod = strings.ToLower(asset.Symbol)
		}
		method := strings.ToLower(asset.PaymentMethod)
		if method == "balance" {
			return nil, fmt.Errorf("asset at index %d uses reserved payment method %q", i, method)
		}
		if prev, ok := methods[method]; ok {
			return nil, fmt.Errorf("assets at index %d and %d share payment method %q", prev, i, method)
		}
		methods[method] = i
		asset.PaymentMethod = method
		config.Assets[i] = asset
	}

	return config.Assets, nil
}

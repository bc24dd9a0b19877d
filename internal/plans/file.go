/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package plans

import (
	"fmt"
	"os"
	"path/filepath"

	"signals-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type planEntry struct {
	Id            string `yaml:"id"`
	Name          string `yaml:"name"`
	MinAmount     string `yaml:"min_amount"`
	MaxAmount     string `yaml:"max_amount"`
	RoiPercentage int64  `yaml:"roi_percentage"`
	DurationDays  int    `yaml:"duration_days"`
	Active        *bool  `yaml:"active"`
}

type plansFile struct {
	Version string      `yaml:"version"`
	Plans   []planEntry `yaml:"plans"`
}

// LoadPlansFile reads a YAML plan catalog. Relative paths resolve against the
// working directory. Plans default to active when the flag is omitted.
func LoadPlansFile(path string) (string, []models.InvestmentPlan, error) {
	plansPath := path
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		plansPath = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(plansPath)
	if err != nil {
		return "", nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	return ParsePlans(data)
}

// ParsePlans decodes and validates a YAML plan catalog.
func ParsePlans(data []byte) (string, []models.InvestmentPlan, error) {
	var file plansFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", nil, fmt.Errorf("unable to parse plans: %w", err)
	}
	if len(file.Plans) == 0 {
		return "", nil, fmt.Errorf("plan file defines no plans")
	}

	seen := make(map[string]bool, len(file.Plans))
	plans := make([]models.InvestmentPlan, 0, len(file.Plans))
	for i, entry := range file.Plans {
		if seen[entry.Id] {
			return "", nil, fmt.Errorf("plan at index %d: duplicate id %q", i, entry.Id)
		}
		seen[entry.Id] = true

		minAmount, err := decimal.NewFromString(entry.MinAmount)
		if err != nil {
			return "", nil, fmt.Errorf("plan at index %d: invalid min_amount %q: %w", i, entry.MinAmount, err)
		}
		maxAmount, err := decimal.NewFromString(entry.MaxAmount)
		if err != nil {
			return "", nil, fmt.Errorf("plan at index %d: invalid max_amount %q: %w", i, entry.MaxAmount, err)
		}

		plan := models.InvestmentPlan{
			Id:            entry.Id,
			Name:          entry.Name,
			MinAmount:     minAmount,
			MaxAmount:     maxAmount,
			RoiPercentage: entry.RoiPercentage,
			DurationDays:  entry.DurationDays,
			IsActive:      entry.Active == nil || *entry.Active,
		}
		if plan.Name == "" {
			plan.Name = plan.Id
		}
		if err := plan.Validate(); err != nil {
			return "", nil, fmt.Errorf("plan at index %d: %w", i, err)
		}
		plans = append(plans, plan)
	}

	sortPlans(plans)
	return file.Version, plans, nil
}

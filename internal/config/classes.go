package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/you/glucopredict/domain"
)

var threeClassTable = []domain.ClassSpec{
	{Label: domain.RiskNormal, Message: "Normal - Low Risk of Diabetes"},
	{Label: domain.RiskBorderline, Message: "Borderline/Pre-diabetic - Moderate Risk of Diabetes"},
	{Label: domain.RiskHigh, Message: "High Risk of Diabetes"},
}

var binaryClassTable = []domain.ClassSpec{
	{Label: domain.RiskNormal, Message: "Normal - Low Risk of Diabetes"},
	{Label: domain.RiskHigh, Message: "High Risk of Diabetes"},
}

// DefaultClassTable returns the built-in table for a binary or three-class model.
func DefaultClassTable(numClasses int) ([]domain.ClassSpec, error) {
	switch numClasses {
	case 2:
		return append([]domain.ClassSpec(nil), binaryClassTable...), nil
	case 3:
		return append([]domain.ClassSpec(nil), threeClassTable...), nil
	default:
		return nil, fmt.Errorf("no default class table for %d classes", numClasses)
	}
}

// LoadClassTable parses a YAML list of classes in output index order:
//
//	classes:
//	  - label: normal
//	    message: Normal - Low Risk of Diabetes
func LoadClassTable(path string) ([]domain.ClassSpec, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read class table file: %w", err)
	}

	var file struct {
		Classes []domain.ClassSpec `yaml:"classes"`
	}
	if err := yaml.Unmarshal(bytes, &file); err != nil {
		return nil, fmt.Errorf("could not parse class table yaml: %w", err)
	}
	if err := ValidateClassTable(file.Classes); err != nil {
		return nil, err
	}
	return file.Classes, nil
}

// ValidateClassTable rejects empty tables, blank labels and duplicates.
func ValidateClassTable(classes []domain.ClassSpec) error {
	if len(classes) < 2 {
		return fmt.Errorf("class table needs at least 2 classes, got %d", len(classes))
	}
	seen := make(map[domain.RiskLevel]bool, len(classes))
	for i, c := range classes {
		label := domain.RiskLevel(strings.TrimSpace(string(c.Label)))
		if label == "" {
			return fmt.Errorf("class %d has an empty label", i)
		}
		if seen[label] {
			return fmt.Errorf("duplicate class label %q", label)
		}
		seen[label] = true
	}
	return nil
}

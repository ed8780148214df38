package usecase

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"gopkg.in/yaml.v3"
)

// PlanDefinition is one plan of the catalog file
type PlanDefinition struct {
	Name           string          `yaml:"name"`
	PriceIDs       []string        `yaml:"price_ids"`
	PricePerSeat   decimal.Decimal `yaml:"-"`
	RawPrice       string          `yaml:"price_per_seat"`
	AnalysisQuota  int             `yaml:"analysis_quota"`
	EmailsPerMonth int             `yaml:"emails_per_month"`
}

type planCatalogFile struct {
	Plans []PlanDefinition `yaml:"plans"`
}

// PlanCatalog maps Stripe price ids to plan definitions
type PlanCatalog struct {
	plans   []PlanDefinition
	byPrice map[string]*PlanDefinition
	byName  map[string]*PlanDefinition
}

// LoadPlanCatalog reads the catalog YAML file
func LoadPlanCatalog(path string) (*PlanCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog: %w", err)
	}
	return ParsePlanCatalog(data)
}

// ParsePlanCatalog parses catalog YAML. Plan names must be known plans and a
// price id may belong to only one plan.
func ParsePlanCatalog(data []byte) (*PlanCatalog, error) {
	var file planCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}

	catalog := &PlanCatalog{
		plans:   file.Plans,
		byPrice: make(map[string]*PlanDefinition),
		byName:  make(map[string]*PlanDefinition),
	}
	for i := range catalog.plans {
		plan := &catalog.plans[i]
		switch plan.Name {
		case entity.PlanFree, entity.PlanSolo, entity.PlanEntrepreneur, entity.PlanTeam:
		default:
			return nil, fmt.Errorf("unknown plan %q in catalog", plan.Name)
		}

		if plan.RawPrice != "" {
			price, err := decimal.NewFromString(plan.RawPrice)
			if err != nil {
				return nil, fmt.Errorf("invalid price_per_seat for %s: %w", plan.Name, err)
			}
			plan.PricePerSeat = price
		}

		catalog.byName[plan.Name] = plan
		for _, priceID := range plan.PriceIDs {
			if other, ok := catalog.byPrice[priceID]; ok {
				return nil, fmt.Errorf("price %s is listed for both %s and %s", priceID, other.Name, plan.Name)
			}
			catalog.byPrice[priceID] = plan
		}
	}
	return catalog, nil
}

// ByPriceID finds the plan sold under a Stripe price
func (c *PlanCatalog) ByPriceID(priceID string) (*PlanDefinition, bool) {
	plan, ok := c.byPrice[priceID]
	return plan, ok
}

func (c *PlanCatalog) ByName(name string) (*PlanDefinition, bool) {
	plan, ok := c.byName[name]
	return plan, ok
}

func (c *PlanCatalog) Plans() []PlanDefinition {
	return c.plans
}

package cases

import (
	"context"
	"log"

	"skinvault-api/internal/model"
	"skinvault-api/internal/service"
)

// Evaluator prices a case's drop table to compute opening economics.
type Evaluator struct {
	catalog  *Catalog
	prices   service.PriceResolver
	currency int
	appID    int
}

// NewEvaluator creates a case evaluator over the loaded catalog.
func NewEvaluator(catalog *Catalog, prices service.PriceResolver, currency, appID int) *Evaluator {
	return &Evaluator{catalog: catalog, prices: prices, currency: currency, appID: appID}
}

// List returns the catalog entries without pricing them.
func (e *Evaluator) List() []model.Case { return e.catalog.List() }

// Evaluate prices every drop of one case and computes its expected
// opening value. Drops whose price cannot be resolved contribute zero,
// keeping the estimate conservative.
func (e *Evaluator) Evaluate(ctx context.Context, id string) (*model.CaseEvaluation, error) {
	cs, err := e.catalog.Get(id)
	if err != nil {
		return nil, err
	}

	eval := &model.CaseEvaluation{
		ID:       cs.ID,
		Name:     cs.Name,
		Image:    cs.Image,
		KeyPrice: cs.KeyPrice,
	}

	casePrice, err := e.resolve(ctx, cs.Name)
	if err != nil {
		log.Printf("[CaseEvaluator] No market price for case %s: %v", cs.Name, err)
	}
	eval.CasePrice = casePrice
	eval.OpeningCost = casePrice
	if cs.RequiresKey {
		eval.OpeningCost += cs.KeyPrice
	}

	for _, item := range cs.Items {
		price, err := e.resolve(ctx, item.Name)
		if err != nil {
			log.Printf("[CaseEvaluator] No market price for drop %s: %v", item.Name, err)
			price = 0
		}
		drop := model.EvaluatedDrop{
			CaseItem:      item,
			Price:         price,
			ExpectedValue: price * item.Probability,
		}
		eval.ExpectedValue += drop.ExpectedValue
		eval.Drops = append(eval.Drops, drop)
	}

	eval.ExpectedNet = eval.ExpectedValue - eval.OpeningCost
	return eval, nil
}

func (e *Evaluator) resolve(ctx context.Context, marketHashName string) (float64, error) {
	key := model.ItemKey{MarketHashName: marketHashName, Currency: e.currency, AppID: e.appID}
	return e.prices.Resolve(ctx, key)
}

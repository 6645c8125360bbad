package pricing

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/younsl/s3optimizer/pkg/utils"
)

// ExtractOnDemandPrice extracts the on-demand USD price from a pricing document.
// S3 storage is priced in volume tiers, so the dimension whose beginRange is
// "0" (the first tier) wins; otherwise the lowest rate code is used.
func ExtractOnDemandPrice(priceJSON string) (float64, error) {
	priceData, err := utils.ParseJSON(priceJSON)
	if err != nil {
		return 0, fmt.Errorf("error parsing pricing data: %w", err)
	}

	terms, ok := priceData["terms"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("terms field not found or invalid")
	}

	onDemand, ok := terms["OnDemand"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("OnDemand field not found or invalid")
	}

	skuOffer, err := utils.GetFirstMapValue(onDemand)
	if err != nil {
		return 0, fmt.Errorf("no SKU offer found")
	}

	skuOfferMap, ok := skuOffer.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("SKU offer is not a map")
	}

	priceDimensions, ok := skuOfferMap["priceDimensions"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("priceDimensions field not found or invalid")
	}

	dimensionMap, err := firstTierDimension(priceDimensions)
	if err != nil {
		return 0, err
	}

	usd, err := utils.GetNestedString(dimensionMap, "pricePerUnit", "USD")
	if err != nil {
		return 0, fmt.Errorf("USD price not found or invalid")
	}

	price, err := strconv.ParseFloat(usd, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing price: %w", err)
	}

	return price, nil
}

func firstTierDimension(priceDimensions map[string]interface{}) (map[string]interface{}, error) {
	if len(priceDimensions) == 0 {
		return nil, fmt.Errorf("no price dimension found")
	}

	rateCodes := make([]string, 0, len(priceDimensions))
	for rateCode := range priceDimensions {
		rateCodes = append(rateCodes, rateCode)
	}
	sort.Strings(rateCodes)

	var fallback map[string]interface{}
	for _, rateCode := range rateCodes {
		dimensionMap, ok := priceDimensions[rateCode].(map[string]interface{})
		if !ok {
			continue
		}
		if fallback == nil {
			fallback = dimensionMap
		}
		if beginRange, _ := dimensionMap["beginRange"].(string); beginRange == "0" {
			return dimensionMap, nil
		}
	}

	if fallback == nil {
		return nil, fmt.Errorf("price dimension is not a map")
	}
	return fallback, nil
}

package portfolio

import "fmt"

// regionSectors is the static region and sector universe the advisor can
// analyze. Tickers are representative large caps per market.
var regionSectors = map[string]map[string][]string{
	"Asia": {
		"Technology": {"TSM", "005930.KS", "9988.HK", "0700.HK", "6758.T"},
		"Finance":    {"8306.T", "8316.T", "3988.HK", "1398.HK", "000001.SS"},
		"Consumer":   {"9633.T", "6758.T", "2330.TW", "1177.HK", "1211.HK"},
		"Healthcare": {"4502.T", "4503.T", "1177.HK", "3320.HK", "1093.HK"},
	},
	"Europe": {
		"Technology": {"ASML.AS", "SAP.DE", "CAP.PA", "STM.PA", "ERIC-B.ST"},
		"Finance":    {"HSBA.L", "BNP.PA", "SAN.MC", "BBVA.MC", "DBK.DE"},
		"Consumer":   {"MC.PA", "OR.PA", "NESN.SW", "UL.AS", "AIR.PA"},
		"Healthcare": {"ROG.SW", "SAN.PA", "NOVN.SW", "AZN.L", "GSK.L"},
	},
	"North America": {
		"Technology": {"AAPL", "MSFT", "GOOGL", "AMZN", "META"},
		"Finance":    {"JPM", "BAC", "WFC", "C", "GS"},
		"Consumer":   {"COST", "WMT", "HD", "NKE", "MCD"},
		"Healthcare": {"JNJ", "PFE", "MRK", "ABT", "UNH"},
	},
}

// sectorOrder keeps the all-sectors ticker list deterministic.
var sectorOrder = []string{"Technology", "Finance", "Consumer", "Healthcare"}

// tickersFor resolves the ticker universe for a region and optional sector.
// The empty sector means the whole region. Unknown names are errors; no data
// is fetched to decide.
func tickersFor(region, sector string) ([]string, error) {
	sectors, ok := regionSectors[region]
	if !ok {
		return nil, fmt.Errorf("Region '%s' not supported", region)
	}

	if sector != "" {
		tickers, ok := sectors[sector]
		if !ok {
			return nil, fmt.Errorf("Sector '%s' not supported for region '%s'", sector, region)
		}
		return tickers, nil
	}

	var all []string
	for _, s := range sectorOrder {
		all = append(all, sectors[s]...)
	}
	return all, nil
}

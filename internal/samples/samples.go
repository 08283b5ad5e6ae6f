// Package samples holds the bundled outfit lists served when a source can
// neither be scraped nor read from the cache.
package samples

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jalshrestha/Outfit/internal/models"
)

//go:embed samples.json
var bundled []byte

var data map[models.SourceName][]models.OutfitRecord

func init() {
	if err := json.Unmarshal(bundled, &data); err != nil {
		panic(fmt.Sprintf("samples: invalid bundled data: %v", err))
	}
}

// For returns a copy of the sample list for source, or nil when there is none.
func For(source models.SourceName) []models.OutfitRecord {
	records, ok := data[source]
	if !ok {
		return nil
	}
	out := make([]models.OutfitRecord, len(records))
	copy(out, records)
	return out
}

// Truncated returns at most max sample records for source.
func Truncated(source models.SourceName, max int) []models.OutfitRecord {
	records := For(source)
	if records == nil {
		return nil
	}
	if max < 0 {
		max = 0
	}
	if len(records) > max {
		records = records[:max]
	}
	return records
}

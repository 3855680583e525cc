package triage

import (
	"fmt"
	"sort"

	"github.com/hay-kot/atlas/internal/core/notes"
)

// FunnelStaleDays is the age past which a capture needs immediate processing.
const FunnelStaleDays = 7

// FunnelBuckets splits capture items by age.
type FunnelBuckets struct {
	Immediate []notes.FunnelItem
	Recent    []notes.FunnelItem
}

// BucketFunnel puts items older than FunnelStaleDays in Immediate and items
// aged zero through FunnelStaleDays in Recent. Items dated in the future
// belong to neither. Both buckets sort oldest first.
func BucketFunnel(items []notes.FunnelItem) FunnelBuckets {
	var b FunnelBuckets
	for _, it := range items {
		switch {
		case it.AgeDays > FunnelStaleDays:
			b.Immediate = append(b.Immediate, it)
		case it.AgeDays >= 0:
			b.Recent = append(b.Recent, it)
		}
	}

	oldest := func(xs []notes.FunnelItem) {
		sort.SliceStable(xs, func(i, j int) bool {
			if xs[i].AgeDays != xs[j].AgeDays {
				return xs[i].AgeDays > xs[j].AgeDays
			}
			return xs[i].Captured.Before(xs[j].Captured)
		})
	}
	oldest(b.Immediate)
	oldest(b.Recent)
	return b
}

// AgeLabel is the human suffix shown next to a capture item.
func AgeLabel(age int) string {
	if age > 0 {
		return fmt.Sprintf("%d days old", age)
	}
	return "Captured today"
}
